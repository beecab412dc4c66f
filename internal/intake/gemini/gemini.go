package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	intakedomain "github.com/AndreaSpaggiari/sito-andrea/internal/intake/domain"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// The form fields the model is asked to read off a production sheet.
// Response is constrained to JSON via the generation config, so parsing
// stays a plain unmarshal.
const formPrompt = `Leggi la scheda di lavorazione fotografata ed estrai i campi richiesti.
Usa null per i campi assenti o illeggibili. I pesi sono in kg, spessore e fascia in mm.`

const matchPrompt = `Leggi il referto di pallamano fotografato ed estrai squadre, punteggio e giornata.
Usa null per i campi assenti o illeggibili.`

type Config struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

type Extractor struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

func New(cfg Config) (*Extractor, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, intakedomain.ErrNotConfigured
	}
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gemini-1.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Extractor{
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		model:    model,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (e *Extractor) Provider() string { return "gemini" }
func (e *Extractor) Model() string    { return e.model }

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"response_mime_type"`
	ResponseSchema   json.RawMessage `json:"response_schema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

var formSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"scheda": {"type": "string", "nullable": true},
		"coil_code": {"type": "string", "nullable": true},
		"coil_weight": {"type": "number", "nullable": true},
		"thickness": {"type": "number", "nullable": true},
		"width": {"type": "number", "nullable": true},
		"measure": {"type": "number", "nullable": true},
		"alloy": {"type": "string", "nullable": true},
		"physical_state": {"type": "string", "nullable": true},
		"client_name": {"type": "string", "nullable": true},
		"requested_weight": {"type": "number", "nullable": true},
		"theoretical_weight": {"type": "number", "nullable": true},
		"delivery_date": {"type": "string", "nullable": true}
	}
}`)

var matchSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"home_team": {"type": "string", "nullable": true},
		"away_team": {"type": "string", "nullable": true},
		"home_score": {"type": "integer", "nullable": true},
		"away_score": {"type": "integer", "nullable": true},
		"round": {"type": "integer", "nullable": true},
		"played_at": {"type": "string", "nullable": true}
	}
}`)

func (e *Extractor) Extract(ctx context.Context, image []byte, contentType string) (intakedomain.Descriptor, error) {
	var payload struct {
		Scheda            *string  `json:"scheda"`
		CoilCode          *string  `json:"coil_code"`
		CoilWeight        *float64 `json:"coil_weight"`
		Thickness         *float64 `json:"thickness"`
		Width             *float64 `json:"width"`
		Measure           *float64 `json:"measure"`
		Alloy             *string  `json:"alloy"`
		PhysicalState     *string  `json:"physical_state"`
		ClientName        *string  `json:"client_name"`
		RequestedWeight   *float64 `json:"requested_weight"`
		TheoreticalWeight *float64 `json:"theoretical_weight"`
		DeliveryDate      *string  `json:"delivery_date"`
	}
	if err := e.generate(ctx, formPrompt, formSchema, image, contentType, &payload); err != nil {
		return intakedomain.Descriptor{}, err
	}

	descriptor := intakedomain.Descriptor{
		Scheda:            deref(payload.Scheda),
		CoilCode:          deref(payload.CoilCode),
		CoilWeight:        derefF(payload.CoilWeight),
		Thickness:         derefF(payload.Thickness),
		Width:             derefF(payload.Width),
		Measure:           derefF(payload.Measure),
		Alloy:             deref(payload.Alloy),
		PhysicalState:     deref(payload.PhysicalState),
		ClientName:        deref(payload.ClientName),
		RequestedWeight:   derefF(payload.RequestedWeight),
		TheoreticalWeight: derefF(payload.TheoreticalWeight),
	}
	if payload.DeliveryDate != nil {
		if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*payload.DeliveryDate)); err == nil {
			descriptor.DeliveryDate = &parsed
		}
	}
	return descriptor, nil
}

func (e *Extractor) ExtractMatchSheet(ctx context.Context, image []byte, contentType string) (intakedomain.MatchSheet, error) {
	var payload struct {
		HomeTeam  *string `json:"home_team"`
		AwayTeam  *string `json:"away_team"`
		HomeScore *int    `json:"home_score"`
		AwayScore *int    `json:"away_score"`
		Round     *int    `json:"round"`
		PlayedAt  *string `json:"played_at"`
	}
	if err := e.generate(ctx, matchPrompt, matchSchema, image, contentType, &payload); err != nil {
		return intakedomain.MatchSheet{}, err
	}

	sheet := intakedomain.MatchSheet{
		HomeTeam: deref(payload.HomeTeam),
		AwayTeam: deref(payload.AwayTeam),
	}
	if payload.HomeScore != nil {
		sheet.HomeScore = *payload.HomeScore
	}
	if payload.AwayScore != nil {
		sheet.AwayScore = *payload.AwayScore
	}
	if payload.Round != nil {
		sheet.Round = *payload.Round
	}
	if payload.PlayedAt != nil {
		if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*payload.PlayedAt)); err == nil {
			sheet.PlayedAt = &parsed
		}
	}
	return sheet, nil
}

func (e *Extractor) generate(ctx context.Context, prompt string, schema json.RawMessage, image []byte, contentType string, out any) error {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{
			Parts: []part{
				{Text: prompt},
				{InlineData: &inlineData{
					MimeType: contentType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   schema,
		},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", e.endpoint, e.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", intakedomain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", intakedomain.ErrExtractionFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", intakedomain.ErrExtractionFailed, resp.StatusCode)
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("%w: %v", intakedomain.ErrExtractionFailed, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("%w: empty response", intakedomain.ErrExtractionFailed)
	}

	text := parsed.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", intakedomain.ErrExtractionFailed, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefF(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
