package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

const (
	maxCitations      = 4
	maxVoiceSamples   = 2
	voiceSampleChars  = 280
	evidenceTextChars = 800
	historyWindow     = 10
)

type RespondDeps struct {
	Log      *logger.Logger
	LLM      openai.Client
	Chunks   repos.ChunkRepo
	Sessions repos.ChatSessionRepo
	Messages repos.ChatMessageRepo
}

type RespondInput struct {
	PersonID   uuid.UUID
	PersonName string
	Stage      *types.Stage
	SessionID  uuid.UUID
	ClientID   string
	Message    string
}

type RespondOutput struct {
	SessionID    uuid.UUID        `json:"session_id"`
	Answer       string           `json:"answer"`
	Citations    []types.Citation `json:"citations"`
	UsedFallback bool             `json:"used_fallback"`
}

// Respond runs stage-scoped retrieval, builds a first-person prompt voiced as
// the subject, generates the reply, and appends both turns to the session's
// message log with up to 4 citations.
func Respond(ctx context.Context, deps RespondDeps, in RespondInput) (RespondOutput, error) {
	out := RespondOutput{}
	if deps.Log == nil || deps.LLM == nil || deps.Chunks == nil || deps.Sessions == nil || deps.Messages == nil {
		return out, fmt.Errorf("respond: missing deps")
	}
	if in.PersonID == uuid.Nil || in.Stage == nil {
		return out, fmt.Errorf("respond: missing person or stage")
	}
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return out, fmt.Errorf("respond: empty message")
	}

	dbc := dbctx.Context{Ctx: ctx}
	session, err := resolveSession(dbc, deps.Sessions, in)
	if err != nil {
		return out, err
	}
	out.SessionID = session.ID

	retrieval, err := ScoreAndSelectChunks(ctx, ScoreAndSelectDeps{Log: deps.Log, LLM: deps.LLM, Chunks: deps.Chunks}, ScoreAndSelectInput{
		PersonID: in.PersonID,
		StageID:  in.Stage.ID,
		Query:    message,
	})
	if err != nil {
		return out, err
	}
	out.UsedFallback = retrieval.UsedFallback

	history, err := deps.Messages.ListRecentBySession(dbc, session.ID, historyWindow)
	if err != nil {
		return out, err
	}

	system := buildPersonaPrompt(in.PersonName, in.Stage, retrieval.Selected)
	user := buildUserPrompt(history, message)

	answer, err := deps.LLM.GenerateText(ctx, system, user)
	if err != nil {
		return out, err
	}
	out.Answer = strings.TrimSpace(answer)
	out.Citations = collectCitations(retrieval.Selected)

	citationsJSON, err := json.Marshal(out.Citations)
	if err != nil {
		citationsJSON = []byte(`[]`)
	}

	if _, err := deps.Messages.Create(dbc, &types.ChatMessage{
		SessionID: session.ID,
		Role:      types.RoleUser,
		Content:   message,
		Citations: datatypes.JSON([]byte(`[]`)),
	}); err != nil {
		return out, err
	}
	if _, err := deps.Messages.Create(dbc, &types.ChatMessage{
		SessionID:    session.ID,
		Role:         types.RoleAssistant,
		Content:      out.Answer,
		Citations:    datatypes.JSON(citationsJSON),
		UsedFallback: retrieval.UsedFallback,
	}); err != nil {
		return out, err
	}
	return out, nil
}

func resolveSession(dbc dbctx.Context, sessions repos.ChatSessionRepo, in RespondInput) (*types.ChatSession, error) {
	if in.SessionID != uuid.Nil {
		session, err := sessions.GetByID(dbc, in.SessionID)
		if err != nil {
			return nil, err
		}
		if session != nil {
			return session, nil
		}
	}
	session, err := sessions.GetOrCreate(dbc, in.PersonID, in.Stage.ID, in.ClientID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("respond: could not resolve session")
	}
	return session, nil
}

// buildPersonaPrompt voices the reply in first person as the subject during
// the selected era, grounded strictly in the retrieved evidence. Voice
// samples from the strongest evidence bias tone toward how the person
// actually spoke and was written about.
func buildPersonaPrompt(personName string, stage *types.Stage, selected []ScoredChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s during the era %q (ages %d-%d).\n", personName, stage.Title, stage.AgeStart, stage.AgeEnd)
	fmt.Fprintf(&b, "Era summary: %s\n", stage.EraSummary)
	if stage.WorldviewSummary != "" {
		fmt.Fprintf(&b, "Your worldview in this era: %s\n", stage.WorldviewSummary)
	}
	b.WriteString("\nAnswer in the first person, as this person, from within this era. ")
	b.WriteString("Ground every claim in the evidence below; if the evidence does not cover the question, say you are not certain rather than inventing details.\n")

	samples := voiceSamples(selected)
	if len(samples) > 0 {
		b.WriteString("\nHow you sound, from the record:\n")
		for _, s := range samples {
			fmt.Fprintf(&b, "- %q\n", s)
		}
	}

	b.WriteString("\nEvidence:\n")
	for i, sc := range selected {
		text := sc.Chunk.Text
		if len(text) > evidenceTextChars {
			text = text[:evidenceTextChars]
		}
		var cite types.ChunkCitation
		_ = json.Unmarshal(sc.Chunk.Citation, &cite)
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i+1, cite.Title, text)
	}
	return b.String()
}

// voiceSamples lifts short quotable fragments from the top evidence.
func voiceSamples(selected []ScoredChunk) []string {
	var out []string
	for _, sc := range selected {
		if len(out) == maxVoiceSamples {
			break
		}
		text := strings.TrimSpace(sc.Chunk.Text)
		if text == "" {
			continue
		}
		if len(text) > voiceSampleChars {
			cut := strings.LastIndex(text[:voiceSampleChars], " ")
			if cut <= 0 {
				cut = voiceSampleChars
			}
			text = text[:cut]
		}
		out = append(out, text)
	}
	return out
}

func buildUserPrompt(history []*types.ChatMessage, message string) string {
	if len(history) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString("Conversation so far:\n")
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "\nuser: %s", message)
	return b.String()
}

// collectCitations deduplicates by source and caps at 4.
func collectCitations(selected []ScoredChunk) []types.Citation {
	seen := map[string]bool{}
	out := []types.Citation{}
	for _, sc := range selected {
		if len(out) == maxCitations {
			break
		}
		var cite types.ChunkCitation
		if err := json.Unmarshal(sc.Chunk.Citation, &cite); err != nil {
			continue
		}
		if cite.SourceID == "" || seen[cite.SourceID] {
			continue
		}
		seen[cite.SourceID] = true
		out = append(out, types.Citation{
			SourceID: cite.SourceID,
			Title:    cite.Title,
			URL:      cite.URL,
		})
	}
	return out
}
