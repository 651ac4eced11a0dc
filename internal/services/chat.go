package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos"
	types "github.com/yungbote/lifeline-backend/internal/domain"
	chatsteps "github.com/yungbote/lifeline-backend/internal/modules/chat/steps"
	"github.com/yungbote/lifeline-backend/internal/platform/dbctx"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
	"github.com/yungbote/lifeline-backend/internal/platform/openai"
)

type StageChatInput struct {
	PersonID  uuid.UUID
	StageID   uuid.UUID
	SessionID uuid.UUID
	ClientID  string
	Message   string
}

type SessionMessages struct {
	Session  *types.ChatSession   `json:"session"`
	Messages []*types.ChatMessage `json:"messages"`
}

type ChatService interface {
	SendStageChat(ctx context.Context, in StageChatInput) (chatsteps.RespondOutput, error)
	GetSessionMessages(ctx context.Context, sessionID uuid.UUID) (*SessionMessages, error)
}

type chatService struct {
	db    *gorm.DB
	log   *logger.Logger
	llm   openai.Client
	repos repos.All
}

func NewChatService(db *gorm.DB, log *logger.Logger, llm openai.Client, r repos.All) ChatService {
	return &chatService{
		db:    db,
		log:   log.With("service", "ChatService"),
		llm:   llm,
		repos: r,
	}
}

// SendStageChat answers one chat turn in the voice of the person, scoped to
// the chosen life era. The person must be fully ingested first: chatting with
// a timeline that has no chunks yet would only produce hollow answers.
func (cs *chatService) SendStageChat(ctx context.Context, in StageChatInput) (chatsteps.RespondOutput, error) {
	out := chatsteps.RespondOutput{}
	if strings.TrimSpace(in.Message) == "" {
		return out, fmt.Errorf("message is required")
	}

	dbc := dbctx.Context{Ctx: ctx}
	person, err := cs.repos.Person.GetByID(dbc, in.PersonID)
	if err != nil {
		return out, err
	}
	if person == nil {
		return out, fmt.Errorf("person not found")
	}
	if person.Status != types.PersonStatusReady {
		return out, fmt.Errorf("person is not ready for chat (status=%s)", person.Status)
	}

	stage, err := cs.repos.Stage.GetByID(dbc, in.StageID)
	if err != nil {
		return out, err
	}
	if stage == nil || stage.PersonID != in.PersonID {
		return out, fmt.Errorf("stage not found for person")
	}

	return chatsteps.Respond(ctx, chatsteps.RespondDeps{
		Log:      cs.log,
		LLM:      cs.llm,
		Chunks:   cs.repos.Chunk,
		Sessions: cs.repos.ChatSession,
		Messages: cs.repos.ChatMessage,
	}, chatsteps.RespondInput{
		PersonID:   in.PersonID,
		PersonName: person.Name,
		Stage:      stage,
		SessionID:  in.SessionID,
		ClientID:   in.ClientID,
		Message:    in.Message,
	})
}

func (cs *chatService) GetSessionMessages(ctx context.Context, sessionID uuid.UUID) (*SessionMessages, error) {
	dbc := dbctx.Context{Ctx: ctx}
	session, err := cs.repos.ChatSession.GetByID(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("session not found")
	}
	messages, err := cs.repos.ChatMessage.ListBySession(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	return &SessionMessages{Session: session, Messages: messages}, nil
}
