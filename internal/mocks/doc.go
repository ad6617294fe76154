// Package mocks provides shared test doubles for the generation and analysis
// boundaries.
//
// Usage:
//
//	gen := &mocks.MockGenerator{
//	    GenerateFn: func(ctx context.Context, p generation.Prompt) (string, error) {
//	        return `{"primary_finding_exists": false}`, nil
//	    },
//	}
//
//	svc := &mocks.MockAnalysisService{
//	    Handle: "op-1",
//	    Steps:  []mocks.PollStep{mocks.Running(), mocks.Succeeded("X", 1)},
//	}
package mocks
