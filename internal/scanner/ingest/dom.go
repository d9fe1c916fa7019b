package ingest

// domExtractScript scrapes the rendered live page into the same JSON shape
// the network payloads use, so both passes share one normalizer. This is the
// degraded path: rendered rows often carry only id, names, scores and a few
// quoted markets.
const domExtractScript = `(() => {
	const rows = document.querySelectorAll('[data-match-id], [data-event-id], .live-match, .match-row');
	const matches = [];
	rows.forEach(row => {
		const id = row.getAttribute('data-match-id') || row.getAttribute('data-event-id') || '';
		if (!id) return;

		const text = sel => {
			const el = row.querySelector(sel);
			return el ? el.textContent.trim() : '';
		};

		const match = {
			id: id,
			name: text('.match-name, .teams, .event-name'),
			status: 'live',
			score_points_current_set: text('.current-set-score, .set-points, .points'),
			score_sets: text('.sets-score, .score-by-sets'),
			markets: []
		};

		row.querySelectorAll('.market, [data-market]').forEach(marketEl => {
			const market = {
				name: marketEl.getAttribute('data-market') ||
					(marketEl.querySelector('.market-name') ? marketEl.querySelector('.market-name').textContent.trim() : ''),
				outcomes: []
			};
			marketEl.querySelectorAll('.outcome, button[data-outcome]').forEach(outcomeEl => {
				market.outcomes.push({
					name: outcomeEl.getAttribute('data-outcome') ||
						(outcomeEl.querySelector('.outcome-name') ? outcomeEl.querySelector('.outcome-name').textContent.trim() : outcomeEl.textContent.trim()),
					value: outcomeEl.querySelector('.odd, .coef') ? outcomeEl.querySelector('.odd, .coef').textContent.trim() : ''
				});
			});
			if (market.name) match.markets.push(market);
		});

		matches.push(match);
	});
	return JSON.stringify({matches: matches});
})()`
