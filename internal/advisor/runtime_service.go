package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tablechart-cli/internal/ai"
	"github.com/KaramelBytes/tablechart-cli/internal/analysis"
	"github.com/KaramelBytes/tablechart-cli/internal/chart"
	"github.com/KaramelBytes/tablechart-cli/internal/dataset"
	"github.com/KaramelBytes/tablechart-cli/internal/suggest"
)

// SampleRows is the number of leading rows sent to the service.
const SampleRows = 5

const systemPrompt = "You are a data visualization analyst. Reply with a single valid JSON object and no additional text."

// RuntimeService implements Service over an ai.Runtime.
type RuntimeService struct {
	Runtime     ai.Runtime
	Model       string
	MaxTokens   int
	Temperature float64
}

// NewRuntimeService returns a service that prompts model through rt.
func NewRuntimeService(rt ai.Runtime, model string) *RuntimeService {
	return &RuntimeService{Runtime: rt, Model: model, MaxTokens: 2048, Temperature: 0.2}
}

func (s *RuntimeService) Analyze(ctx context.Context, req Request) (*suggest.Analysis, error) {
	prompt, err := analysisPrompt(req)
	if err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(text, req.Dataset)
}

func (s *RuntimeService) Insights(ctx context.Context, req InsightRequest) (*suggest.InsightReport, error) {
	prompt, err := insightPrompt(req)
	if err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseInsights(text)
}

func (s *RuntimeService) generate(ctx context.Context, prompt string) (string, error) {
	if s == nil || s.Runtime == nil {
		return "", ErrNoService
	}
	resp, err := s.Runtime.Generate(ctx, ai.GenerateRequest{
		Model: s.Model,
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:      s.MaxTokens,
		Temperature:    s.Temperature,
		ResponseFormat: ai.JSONObject,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	text := resp.Content()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}
	return text, nil
}

func analysisPrompt(req Request) (string, error) {
	sample, err := json.MarshalIndent(req.Dataset.Head(SampleRows).Records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode sample rows: %w", err)
	}
	rep := analysis.Profile(req.Dataset, req.Name, analysis.DefaultOptions())
	var b strings.Builder
	b.WriteString("Analyze this dataset structure and provide insights for dashboard creation.\n\n")
	fmt.Fprintf(&b, "Filename: %s\n", req.Name)
	fmt.Fprintf(&b, "Columns: %s\n\n", strings.Join(req.Dataset.ColumnNames(), ", "))
	b.WriteString("Profile:\n")
	b.WriteString(rep.Markdown())
	fmt.Fprintf(&b, "\nSample Data (first %d rows):\n%s\n\n", SampleRows, sample)
	b.WriteString(`Respond with JSON of this shape:
{
  "datasetSummary": "Brief description of what this dataset represents",
  "columnAnalysis": {
    "numeric": ["numeric column names"],
    "categorical": ["categorical column names"],
    "temporal": ["date/time column names"]
  },
  "suggestedCharts": [
    {
      "title": "Chart title",
      "type": "bar|line|pie|area|scatter|combo",
      "xAxis": "column name",
      "yAxis": "column name",
      "groupBy": "column name or null",
      "reasoning": "Why this chart would be valuable"
    }
  ],
  "keyInsights": ["3-5 key insights about the data"],
  "recommendedFilters": ["columns that would make good filters"],
  "dataQualityNotes": ["observations about data quality or missing values"]
}
Use only column names listed above.`)
	return b.String(), nil
}

func insightPrompt(req InsightRequest) (string, error) {
	charts, err := json.Marshal(req.Charts)
	if err != nil {
		return "", fmt.Errorf("encode charts: %w", err)
	}
	rep := analysis.Profile(req.Dataset, req.Name, analysis.DefaultOptions())
	var b strings.Builder
	b.WriteString("Analyze this dataset and provide business insights.\n\n")
	fmt.Fprintf(&b, "Dataset size: %d rows\n", req.Dataset.Len())
	fmt.Fprintf(&b, "Chart configurations: %s\n\n", charts)
	b.WriteString("Profile:\n")
	b.WriteString(rep.Markdown())
	b.WriteString(`
Respond with JSON of this shape:
{
  "executiveSummary": "2-3 sentence summary of key findings",
  "trends": ["trends observed in the data"],
  "anomalies": ["unusual patterns or outliers"],
  "recommendations": ["actionable business recommendations"],
  "predictiveInsights": ["potential future trends"]
}`)
	return b.String(), nil
}

// stripFences removes a surrounding Markdown code fence such as ```json ... ```.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type wireChart struct {
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	XAxis     string  `json:"xAxis"`
	YAxis     string  `json:"yAxis"`
	GroupBy   *string `json:"groupBy"`
	Reasoning string  `json:"reasoning"`
}

type wireAnalysis struct {
	DatasetSummary     string                   `json:"datasetSummary"`
	ColumnAnalysis     *analysis.Classification `json:"columnAnalysis"`
	SuggestedCharts    []wireChart              `json:"suggestedCharts"`
	KeyInsights        []string                 `json:"keyInsights"`
	RecommendedFilters []string                 `json:"recommendedFilters"`
	DataQualityNotes   []string                 `json:"dataQualityNotes"`
}

// parseAnalysis decodes a service reply and keeps only charts that validate
// against d. A reply without summary, column analysis, insights, or any
// usable chart is rejected.
func parseAnalysis(text string, d dataset.Dataset) (*suggest.Analysis, error) {
	var w wireAnalysis
	if err := json.Unmarshal([]byte(stripFences(text)), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case strings.TrimSpace(w.DatasetSummary) == "":
		return nil, fmt.Errorf("%w: missing datasetSummary", ErrMalformedResponse)
	case w.ColumnAnalysis == nil:
		return nil, fmt.Errorf("%w: missing columnAnalysis", ErrMalformedResponse)
	case len(w.KeyInsights) == 0:
		return nil, fmt.Errorf("%w: missing keyInsights", ErrMalformedResponse)
	}
	out := &suggest.Analysis{
		DatasetSummary:     w.DatasetSummary,
		ColumnAnalysis:     checkedClassification(*w.ColumnAnalysis, d),
		KeyInsights:        w.KeyInsights,
		RecommendedFilters: w.RecommendedFilters,
		DataQualityNotes:   w.DataQualityNotes,
	}
	for _, wc := range w.SuggestedCharts {
		if s, ok := usableChart(wc, d); ok {
			out.SuggestedCharts = append(out.SuggestedCharts, s)
		}
	}
	if len(out.SuggestedCharts) == 0 {
		return nil, fmt.Errorf("%w: no usable suggestedCharts", ErrMalformedResponse)
	}
	return out, nil
}

// checkedClassification keeps the service's column partition when it names
// only dataset columns, each at most once; columns it left out are filled in
// from the local classification. Anything else is replaced by the local one.
func checkedClassification(c analysis.Classification, d dataset.Dataset) analysis.Classification {
	local := analysis.Classify(dataset.Clean(d))
	known := map[string]bool{}
	for _, col := range d.ColumnNames() {
		known[col] = true
	}
	seen := map[string]bool{}
	for _, bucket := range [][]string{c.Numeric, c.Categorical, c.Temporal, c.Boolean} {
		for _, col := range bucket {
			if !known[col] || seen[col] {
				return local
			}
			seen[col] = true
		}
	}
	if len(seen) == 0 {
		return local
	}
	fill := func(svc, loc []string) []string {
		out := append([]string(nil), svc...)
		for _, col := range loc {
			if !seen[col] {
				out = append(out, col)
			}
		}
		return out
	}
	return analysis.Classification{
		Numeric:     fill(c.Numeric, local.Numeric),
		Categorical: fill(c.Categorical, local.Categorical),
		Temporal:    fill(c.Temporal, local.Temporal),
		Boolean:     fill(c.Boolean, local.Boolean),
	}
}

func usableChart(wc wireChart, d dataset.Dataset) (chart.Spec, bool) {
	typ, err := chart.ParseType(wc.Type)
	if err != nil {
		return chart.Spec{}, false
	}
	s := chart.Spec{
		Type:      typ,
		XAxis:     strings.TrimSpace(wc.XAxis),
		YAxis:     strings.TrimSpace(wc.YAxis),
		Title:     wc.Title,
		Reasoning: wc.Reasoning,
	}
	if wc.GroupBy != nil {
		switch g := strings.TrimSpace(*wc.GroupBy); strings.ToLower(g) {
		case "", "null", "none":
		default:
			s.GroupBy = g
		}
	}
	if !chart.ValidateSpec(d, s).Valid {
		return chart.Spec{}, false
	}
	return s.WithID(), true
}

type wireInsights struct {
	ExecutiveSummary   string   `json:"executiveSummary"`
	Trends             []string `json:"trends"`
	Anomalies          []string `json:"anomalies"`
	Recommendations    []string `json:"recommendations"`
	PredictiveInsights []string `json:"predictiveInsights"`
}

func parseInsights(text string) (*suggest.InsightReport, error) {
	var w wireInsights
	if err := json.Unmarshal([]byte(stripFences(text)), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(w.ExecutiveSummary) == "" {
		return nil, fmt.Errorf("%w: missing executiveSummary", ErrMalformedResponse)
	}
	if len(w.Trends)+len(w.Anomalies)+len(w.Recommendations)+len(w.PredictiveInsights) == 0 {
		return nil, fmt.Errorf("%w: no insight lists", ErrMalformedResponse)
	}
	return &suggest.InsightReport{
		ExecutiveSummary:   w.ExecutiveSummary,
		Trends:             w.Trends,
		Anomalies:          w.Anomalies,
		Recommendations:    w.Recommendations,
		PredictiveInsights: w.PredictiveInsights,
	}, nil
}
