package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/llmjson"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const (
	segmentDigestSources  = 30
	segmentDigestTextSize = 1000
	segmentMinStages      = 3
	segmentMaxStages      = 7
	maxTurningPoints      = 6
)

const (
	placeholderEraSummary       = "Biography era summary unavailable."
	placeholderWorldviewSummary = "Worldview summary unavailable."
	placeholderLabel            = "Life Era"
)

// StageDraft is the normalized intermediate form between the model's output
// and the persisted Stage rows.
type StageDraft struct {
	Order            int
	Label            string
	Title            string
	AgeStart         int
	AgeEnd           int
	DateStart        string
	DateEnd          string
	EraSummary       string
	WorldviewSummary string
	TurningPoints    []string
	Confidence       float64
}

type SegmentStagesDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	LLM     openai.Client
	Sources repos.SourceRepo
	Stages  repos.StageRepo
}

type SegmentStagesInput struct {
	PersonID   uuid.UUID
	PersonName string
}

type SegmentStagesOptions struct {
	Report func(phase string, pct int, message string)
}

type SegmentStagesOutput struct {
	StagesCreated int  `json:"stages_created"`
	UsedFallback  bool `json:"used_fallback"`
}

var stagesSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"stages"},
	"properties": map[string]any{
		"stages": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required": []string{
					"order", "label", "age_start", "age_end",
					"date_start", "date_end", "era_summary",
					"worldview_summary", "turning_points", "confidence",
				},
				"properties": map[string]any{
					"order":             map[string]any{"type": "integer"},
					"label":             map[string]any{"type": "string"},
					"age_start":         map[string]any{"type": "integer"},
					"age_end":           map[string]any{"type": "integer"},
					"date_start":        map[string]any{"type": "string"},
					"date_end":          map[string]any{"type": "string"},
					"era_summary":       map[string]any{"type": "string"},
					"worldview_summary": map[string]any{"type": "string"},
					"turning_points": map[string]any{
						"type":  "array",
						"items": map[string]any{"type": "string"},
					},
					"confidence": map[string]any{"type": "number"},
				},
			},
		},
	},
}

// SegmentStages asks the model to carve the person's life into 3-7 age-bounded
// eras from a digest of extracted sources, normalizes every draft, and
// replaces the person's whole stage set. Fewer than 3 usable drafts installs
// the fixed fallback ladder instead.
func SegmentStages(ctx context.Context, deps SegmentStagesDeps, in SegmentStagesInput, opts ...SegmentStagesOptions) (SegmentStagesOutput, error) {
	out := SegmentStagesOutput{}
	if deps.DB == nil || deps.Log == nil || deps.LLM == nil || deps.Sources == nil || deps.Stages == nil {
		return out, fmt.Errorf("segment_stages: missing deps")
	}
	if in.PersonID == uuid.Nil {
		return out, fmt.Errorf("segment_stages: missing person_id")
	}

	var opt SegmentStagesOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	progress := newProgressReporter(types.PhaseStage, opt.Report, 0, 0)
	progress.Update(5, "building source digest")

	digest, err := buildSourceDigest(ctx, deps.Sources, in.PersonID)
	if err != nil {
		return out, err
	}

	progress.Update(25, "segmenting life into eras")
	drafts := requestStageDrafts(ctx, deps, in.PersonName, digest)

	if len(drafts) < segmentMinStages {
		deps.Log.Warn("Segmentation yielded too few usable stages; installing fallback ladder",
			"person", in.PersonName,
			"usable", len(drafts),
		)
		drafts = FallbackStageLadder()
		out.UsedFallback = true
	}
	if len(drafts) > segmentMaxStages {
		drafts = drafts[:segmentMaxStages]
	}

	sort.SliceStable(drafts, func(i, j int) bool { return drafts[i].Order < drafts[j].Order })
	rows := make([]*types.Stage, 0, len(drafts))
	for i := range drafts {
		drafts[i].Order = i
		drafts[i] = NormalizeStageDraft(drafts[i])
		rows = append(rows, draftToStage(in.PersonID, drafts[i]))
	}

	progress.Update(60, "saving stages")
	if _, err := deps.Stages.ReplaceAllForPerson(dbctx.Context{Ctx: ctx}, in.PersonID, rows); err != nil {
		return out, err
	}
	out.StagesCreated = len(rows)
	return out, nil
}

func buildSourceDigest(ctx context.Context, sources repos.SourceRepo, personID uuid.UUID) (string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	var b strings.Builder
	count := 0
	for offset := 0; count < segmentDigestSources; offset += extractPageSize {
		page, err := sources.ListPage(dbc, personID, offset, extractPageSize)
		if err != nil {
			return "", err
		}
		if len(page) == 0 {
			break
		}
		for _, src := range page {
			if count >= segmentDigestSources {
				break
			}
			text := src.RawText
			if text == "" {
				text = src.TranscriptText
			}
			if len(text) > segmentDigestTextSize {
				text = text[:segmentDigestTextSize]
			}
			fmt.Fprintf(&b, "- title: %s\n  url: %s\n  type: %s\n  published: %s\n  text: %s\n",
				src.Title, src.URL, src.Type, src.PublishedAt, text)
			count++
		}
	}
	return b.String(), nil
}

func requestStageDrafts(ctx context.Context, deps SegmentStagesDeps, personName, digest string) []StageDraft {
	system := "You are a biographer segmenting a person's life into distinct eras based on evidence."
	user := fmt.Sprintf(`Segment the life of %q into between 3 and 7 eras using this evidence digest:

%s

Each era needs: order (0-based), a short label, age_start, age_end, date_start, date_end (best guesses, ISO dates or years), era_summary (2-3 sentences), worldview_summary (how they saw the world in this era), up to 6 turning_points, and a confidence between 0 and 1. Eras must be ordered by age ascending and should not overlap.`, personName, digest)

	obj, err := deps.LLM.GenerateJSON(ctx, system, user, "life_stage_segmentation", stagesSchema)
	if err != nil {
		deps.Log.Warn("Stage segmentation request failed", "person", personName, "error", err.Error())
		return nil
	}

	raw := llmjson.Objects(obj, "stages")
	drafts := make([]StageDraft, 0, len(raw))
	for i, s := range raw {
		label := strings.TrimSpace(llmjson.Str(s, "label", ""))
		summary := strings.TrimSpace(llmjson.Str(s, "era_summary", ""))
		// A draft with neither a label nor a summary carries no signal.
		if label == "" && summary == "" {
			continue
		}
		drafts = append(drafts, StageDraft{
			Order:            llmjson.Int(s, "order", i),
			Label:            label,
			AgeStart:         llmjson.Int(s, "age_start", -1),
			AgeEnd:           llmjson.Int(s, "age_end", -1),
			DateStart:        llmjson.Str(s, "date_start", ""),
			DateEnd:          llmjson.Str(s, "date_end", ""),
			EraSummary:       summary,
			WorldviewSummary: strings.TrimSpace(llmjson.Str(s, "worldview_summary", "")),
			TurningPoints:    llmjson.Strings(s, "turning_points", 0),
			Confidence:       llmjson.Float(s, "confidence", -1),
		})
	}
	return drafts
}

var stageTitlePattern = regexp.MustCompile(`^\[\d+-\d+\] - .+$`)

// NormalizeStageDraft repairs a draft regardless of model output quality:
// index-derived age defaults, canned placeholder strings, turning points
// capped at 6, confidence defaulted to 0.5, and the canonical
// "[ageStart-ageEnd] - label" title. Idempotent for well-formed drafts.
func NormalizeStageDraft(d StageDraft) StageDraft {
	if d.Order < 0 {
		d.Order = 0
	}
	if d.AgeStart < 0 {
		d.AgeStart = d.Order * 10
	}
	if d.AgeEnd <= d.AgeStart {
		d.AgeEnd = d.AgeStart + 9
	}
	if strings.TrimSpace(d.Label) == "" {
		d.Label = placeholderLabel
	}
	if strings.TrimSpace(d.EraSummary) == "" {
		d.EraSummary = placeholderEraSummary
	}
	if strings.TrimSpace(d.WorldviewSummary) == "" {
		d.WorldviewSummary = placeholderWorldviewSummary
	}

	points := make([]string, 0, len(d.TurningPoints))
	for _, tp := range d.TurningPoints {
		tp = strings.TrimSpace(tp)
		if tp == "" {
			continue
		}
		points = append(points, tp)
		if len(points) == maxTurningPoints {
			break
		}
	}
	d.TurningPoints = points

	if d.Confidence < 0 || d.Confidence > 1 {
		d.Confidence = 0.5
	}

	canonical := fmt.Sprintf("[%d-%d] - %s", d.AgeStart, d.AgeEnd, d.Label)
	if !stageTitlePattern.MatchString(d.Title) || d.Title != canonical {
		d.Title = canonical
	}
	return d
}

// FallbackStageLadder is the fixed 3-stage substitute installed when the
// model cannot produce enough usable eras. Spans ages 0 through 45+.
func FallbackStageLadder() []StageDraft {
	return []StageDraft{
		{
			Order:            0,
			Label:            "Formative Years",
			AgeStart:         0,
			AgeEnd:           17,
			EraSummary:       "Childhood, family background, and early education.",
			WorldviewSummary: "A developing perspective shaped by upbringing and early influences.",
			Confidence:       0.3,
		},
		{
			Order:            1,
			Label:            "Early Builder",
			AgeStart:         18,
			AgeEnd:           32,
			EraSummary:       "Early career, first major work, and the search for direction.",
			WorldviewSummary: "An ambitious outlook focused on establishing a place in the world.",
			Confidence:       0.3,
		},
		{
			Order:            2,
			Label:            "Institutional Influence",
			AgeStart:         33,
			AgeEnd:           45,
			EraSummary:       "Mature work, recognition, and broader influence.",
			WorldviewSummary: "A settled perspective informed by experience and responsibility.",
			Confidence:       0.3,
		},
	}
}

func draftToStage(personID uuid.UUID, d StageDraft) *types.Stage {
	points, err := json.Marshal(d.TurningPoints)
	if err != nil {
		points = []byte(`[]`)
	}
	return &types.Stage{
		PersonID:         personID,
		Order:            d.Order,
		Title:            d.Title,
		AgeStart:         d.AgeStart,
		AgeEnd:           d.AgeEnd,
		DateStart:        d.DateStart,
		DateEnd:          d.DateEnd,
		EraSummary:       d.EraSummary,
		WorldviewSummary: d.WorldviewSummary,
		TurningPoints:    datatypes.JSON(points),
		Confidence:       d.Confidence,
	}
}
