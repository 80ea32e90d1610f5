package agent

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/pnlkit/pnlkit"
	"github.com/pnlkit/pnlkit/renderer"
)

const model = "gemini-2.5-pro"

func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			As a facilitator you are in charge of the conversation and solving the user's request.

			Learn about the experts' skills from the Tools and ask them questions.
			They are at your service and keep context of your previous questions.

			The user is here to understand the profit and loss of their portfolio.
			Never invent a figure: every number in your answer must come from an
			expert's computation.
		`}}},
		},
		Library: NewLibrary(experts),
	}
}

// Func implements Function from a declaration and a closure.
type Func struct {
	Decl *genai.FunctionDeclaration
	Func func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse
}

func (f *Func) Declaration() *genai.FunctionDeclaration { return f.Decl }
func (f *Func) Call(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
	return f.Func(ctx, id, args)
}

// NewAnalyst returns the expert that computes real performance figures from
// the ledger. load provides the full transaction history on demand, so the
// expert always sees the current ledger file.
func NewAnalyst(load func() ([]pnlkit.Transaction, error), r *pnlkit.Resolver, cur pnlkit.Currency) *Expert {
	lib := []Function{performanceFunc(load, r, cur)}

	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It computes the portfolio's profit and loss
		from the user's transaction ledger, under the fifo, lifo or wac cost basis method.
		Ask it whenever a figure about the user's wealth is needed.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(lib)},
			},
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: `
			You are a portfolio analyst. Use the available tools to compute the
			user's performance figures; never estimate them yourself. Report the
			figures as they come back, including which cost basis method produced them.
		`}}},
		},
		Library: NewLibrary(lib),
	}
}

func performanceFunc(load func() ([]pnlkit.Transaction, error), r *pnlkit.Resolver, cur pnlkit.Currency) *Func {
	return &Func{
		Decl: &genai.FunctionDeclaration{
			Name: "Performance",
			Description: `Performance computes the portfolio's profit and loss snapshot
			as of a given day: total value, realised and unrealised P/L, and the
			per-position breakdown.`,
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"method": {
						Type:        genai.TypeString,
						Description: "Cost basis method: fifo, lifo or wac. Default is fifo.",
					},
					"until": {
						Type:        genai.TypeString,
						Description: "The day to compute the snapshot for, YYYY-MM-DD. Today is the default.",
					},
				},
			},
			Response: &genai.Schema{
				Type:        genai.TypeString,
				Description: "A markdown-formatted performance report.",
			},
		},
		Func: func(ctx context.Context, id string, args map[string]any) *genai.FunctionResponse {
			fail := func(err error) *genai.FunctionResponse {
				return &genai.FunctionResponse{
					ID: id, Name: "Performance",
					Response: map[string]any{"error": err.Error()},
				}
			}

			method := pnlkit.FIFO
			if s, ok := args["method"].(string); ok && s != "" {
				var err error
				if method, err = pnlkit.ParseMethod(s); err != nil {
					return fail(err)
				}
			}
			until := time.Now().UTC()
			if s, ok := args["until"].(string); ok && s != "" {
				var err error
				if until, err = time.Parse("2006-01-02", s); err != nil {
					return fail(fmt.Errorf("argument 'until' must be a YYYY-MM-DD date, got %q", s))
				}
			}

			txs, err := load()
			if err != nil {
				return fail(fmt.Errorf("could not load ledger: %w", err))
			}
			var start time.Time
			if len(txs) > 0 {
				start = txs[0].When()
			}
			p, err := method.Engine()(ctx, txs, start, until, cur, r)
			if err != nil {
				return fail(err)
			}

			return &genai.FunctionResponse{
				ID: id, Name: "Performance",
				Response: map[string]any{
					"output": renderer.PerformanceMarkdown(p, method),
				},
			}
		},
	}
}
