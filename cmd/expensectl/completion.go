package main

import (
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// completion describes the command line for shell completion. Install it
// with COMP_INSTALL=1 expensectl.
func completion() *complete.Command {
	categories := make(predict.Set, 0, len(core.Categories))
	for _, c := range core.Categories {
		categories = append(categories, c.String())
	}
	filters := append(predict.Set{report.FilterAll}, categories...)

	form := map[string]complete.Predictor{
		"amount":      predict.Something,
		"category":    categories,
		"description": predict.Something,
		"date":        predict.Something,
	}

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"api": predict.Something,
		},
		Sub: map[string]*complete.Command{
			"list":       {Flags: map[string]complete.Predictor{"category": filters}},
			"add":        {Flags: form},
			"edit":       {Flags: form, Args: predict.Something},
			"delete":     {Args: predict.Something},
			"stats":      {},
			"breakdown":  {},
			"categories": {},
			"export": {Flags: map[string]complete.Predictor{
				"category":    filters,
				"o":           predict.Files("*.csv"),
				"date-layout": predict.Something,
			}},
			"help": {},
		},
	}
}
