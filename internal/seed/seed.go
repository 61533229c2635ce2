// internal/seed/seed.go

// Package seed loads the demo customers, quote history, reference projects
// and business rules used in development environments.
package seed

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"quotegenius/internal/common/logger"
	"quotegenius/internal/models"
	"quotegenius/internal/store/relational"
	"quotegenius/internal/store/similarity"
)

type Project struct {
	ID          string
	CustomerID  string
	Name        string
	Description string
	TotalPrice  float64
	Margin      float64
	Satisfied   bool
	Completed   string
	Challenges  string
}

func (p Project) metadata() map[string]interface{} {
	md := map[string]interface{}{
		"project_id":          p.ID,
		"customer_id":         p.CustomerID,
		"project_name":        p.Name,
		"project_description": p.Description,
		"total_price":         p.TotalPrice,
		"profit_margin":       p.Margin,
		"customer_satisfied":  p.Satisfied,
	}
	if p.Completed != "" {
		md["completion_date"] = p.Completed
	}
	if p.Challenges != "" {
		md["challenges"] = p.Challenges
	}
	return md
}

type Rule struct {
	ID          string
	Type        string
	CustomerID  string
	Description string
}

func (r Rule) metadata() map[string]interface{} {
	md := map[string]interface{}{
		"rule_id":   r.ID,
		"rule_type": r.Type,
	}
	if r.CustomerID != "" {
		md["customer_id"] = r.CustomerID
	}
	return md
}

type historicalQuote struct {
	id       string
	customer string
	project  string
	total    float64
	daysAgo  int
	status   models.QuoteStatus
	feedback string
}

var Customers = []models.Customer{
	{ID: "cust-101", Name: "Aerospace Dynamics", Industry: "Aerospace", RelationshipLength: 5, CreditScore: 85},
	{ID: "cust-102", Name: "Industrial Solutions Inc.", Industry: "Manufacturing", RelationshipLength: 2, CreditScore: 72},
	{ID: "cust-103", Name: "MedTech Innovations", Industry: "Medical", RelationshipLength: 3, CreditScore: 90},
}

var Projects = []Project{
	{
		ID: "proj-001", CustomerID: "cust-101", Name: "Industrial Valve Assembly",
		Description: "Manufacturing of 500 custom industrial valves for high-pressure systems.",
		TotalPrice:  125000, Margin: 22.5, Satisfied: true, Completed: "2023-05-15",
	},
	{
		ID: "proj-002", CustomerID: "cust-102", Name: "Aerospace Component Fabrication",
		Description: "Precision machining of titanium components for aerospace applications.",
		TotalPrice:  287500, Margin: 18.3, Satisfied: true, Completed: "2023-07-22",
	},
	{
		ID: "proj-003", CustomerID: "cust-101", Name: "Hydraulic System Overhaul",
		Description: "Complete redesign and manufacturing of hydraulic control systems.",
		TotalPrice:  195000, Margin: 24.1, Challenges: "Material delays, design changes mid-project",
	},
}

var Rules = []Rule{
	{ID: "rule-001", Type: "general", Description: "Standard markup for raw materials is 15-20% depending on market volatility."},
	{ID: "rule-002", Type: "general", Description: "Labor rates must include 25% overhead for benefits and facility costs."},
	{ID: "rule-003", Type: "customer-specific", CustomerID: "cust-101", Description: "Customer 101 has negotiated a 5% volume discount on orders over $100,000."},
}

var history = []historicalQuote{
	{"seed-q-001", "cust-101", "Turbine Housing Prototype", 142000, 150, models.QuoteStatusAccepted, "Pricing was competitive and the timeline worked for us."},
	{"seed-q-002", "cust-101", "Landing Gear Bracket Run", 98000, 120, models.QuoteStatusRejected, "Lead time was too long for our schedule."},
	{"seed-q-003", "cust-102", "Conveyor Retrofit", 76500, 95, models.QuoteStatusAccepted, "Good value for the scope."},
	{"seed-q-004", "cust-102", "Press Line Tooling", 210000, 60, models.QuoteStatusPending, ""},
	{"seed-q-005", "cust-103", "Surgical Tray Fixtures", 54000, 40, models.QuoteStatusAccepted, "Quality documentation was excellent."},
	{"seed-q-006", "cust-103", "Imaging Frame Assembly", 188000, 15, models.QuoteStatusRejected, "A competitor came in lower on materials."},
}

// Options tunes a seed run.
type Options struct {
	// Concurrency bounds the number of in-flight writes.
	Concurrency int
	Now         time.Time
}

// Summary counts what a run wrote.
type Summary struct {
	Customers int `json:"customers"`
	Quotes    int `json:"quotes"`
	Feedback  int `json:"feedback"`
	Projects  int `json:"projects"`
	Rules     int `json:"rules"`
}

// Quotes returns the seeded quote history anchored at now. The breakdown is
// split 60/30/10 across materials, labor and overhead.
func Quotes(now time.Time) []models.Quote {
	out := make([]models.Quote, 0, len(history))
	for _, h := range history {
		out = append(out, models.Quote{
			ID:          h.id,
			CustomerID:  h.customer,
			ProjectName: h.project,
			CreatedAt:   now.AddDate(0, 0, -h.daysAgo).UTC(),
			Breakdown: map[string]float64{
				"materials": h.total * 0.6,
				"labor":     h.total * 0.3,
				"overhead":  h.total * 0.1,
			},
			TotalPrice:      h.total,
			ConfidenceScore: 85,
			Status:          h.status,
			Generation:      models.Structured(map[string]interface{}{"source": "seed"}),
		})
	}
	return out
}

// Run writes every fixture. Re-running it is safe: quotes and customers are
// upserted and similarity documents are content addressed. Feedback rows are
// appended only for quotes that did not exist before the run.
func Run(ctx context.Context, quotes relational.Store, projects, rules similarity.Store, opts Options, log logger.Logger) (*Summary, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var summary Summary
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, c := range Customers {
		c := c
		g.Go(func() error {
			if err := quotes.PutCustomer(gctx, c); err != nil {
				return fmt.Errorf("customer %s: %w", c.ID, err)
			}
			return nil
		})
	}
	for _, p := range Projects {
		p := p
		g.Go(func() error {
			if _, err := projects.Upsert(gctx, p.Description, p.metadata()); err != nil {
				return fmt.Errorf("project %s: %w", p.ID, err)
			}
			return nil
		})
	}
	for _, r := range Rules {
		r := r
		g.Go(func() error {
			if _, err := rules.Upsert(gctx, r.Description, r.metadata()); err != nil {
				return fmt.Errorf("rule %s: %w", r.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	summary.Customers = len(Customers)
	summary.Projects = len(Projects)
	summary.Rules = len(Rules)

	// Quotes reference customers, so they go in a second pass.
	feedback := make(map[string]string, len(history))
	for _, h := range history {
		feedback[h.id] = h.feedback
	}
	for _, q := range Quotes(opts.Now) {
		_, err := quotes.GetQuote(ctx, q.ID)
		existed := err == nil

		if err := quotes.PutQuote(ctx, q); err != nil {
			return nil, fmt.Errorf("quote %s: %w", q.ID, err)
		}
		summary.Quotes++

		text := feedback[q.ID]
		if existed || text == "" {
			continue
		}
		if _, err := quotes.AppendFeedback(ctx, q.ID, text, q.Status == models.QuoteStatusAccepted); err != nil {
			return nil, fmt.Errorf("feedback %s: %w", q.ID, err)
		}
		summary.Feedback++
	}

	log.Info("Seed data loaded", map[string]interface{}{
		"customers": summary.Customers,
		"quotes":    summary.Quotes,
		"feedback":  summary.Feedback,
		"projects":  summary.Projects,
		"rules":     summary.Rules,
	})
	return &summary, nil
}
