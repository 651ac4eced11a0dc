package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/lifeline-backend/internal/data/repos/chat"
	"github.com/yungbote/lifeline-backend/internal/data/repos/evidence"
	"github.com/yungbote/lifeline-backend/internal/data/repos/people"
	"github.com/yungbote/lifeline-backend/internal/platform/logger"
)

type PersonRepo = people.PersonRepo
type IngestJobRepo = people.IngestJobRepo

type SourceRepo = evidence.SourceRepo
type StageRepo = evidence.StageRepo
type StageSourceLinkRepo = evidence.StageSourceLinkRepo
type ChunkRepo = evidence.ChunkRepo
type TimelineCardRepo = evidence.TimelineCardRepo

type ChatSessionRepo = chat.ChatSessionRepo
type ChatMessageRepo = chat.ChatMessageRepo

func NewPersonRepo(db *gorm.DB, baseLog *logger.Logger) PersonRepo {
	return people.NewPersonRepo(db, baseLog)
}
func NewIngestJobRepo(db *gorm.DB, baseLog *logger.Logger) IngestJobRepo {
	return people.NewIngestJobRepo(db, baseLog)
}

func NewSourceRepo(db *gorm.DB, baseLog *logger.Logger) SourceRepo {
	return evidence.NewSourceRepo(db, baseLog)
}
func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return evidence.NewStageRepo(db, baseLog)
}
func NewStageSourceLinkRepo(db *gorm.DB, baseLog *logger.Logger) StageSourceLinkRepo {
	return evidence.NewStageSourceLinkRepo(db, baseLog)
}
func NewChunkRepo(db *gorm.DB, baseLog *logger.Logger) ChunkRepo {
	return evidence.NewChunkRepo(db, baseLog)
}
func NewTimelineCardRepo(db *gorm.DB, baseLog *logger.Logger) TimelineCardRepo {
	return evidence.NewTimelineCardRepo(db, baseLog)
}

func NewChatSessionRepo(db *gorm.DB, baseLog *logger.Logger) ChatSessionRepo {
	return chat.NewChatSessionRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}

// All bundles every repo for constructor-heavy call sites.
type All struct {
	Person    PersonRepo
	IngestJob IngestJobRepo

	Source          SourceRepo
	Stage           StageRepo
	StageSourceLink StageSourceLinkRepo
	Chunk           ChunkRepo
	TimelineCard    TimelineCardRepo

	ChatSession ChatSessionRepo
	ChatMessage ChatMessageRepo
}

func NewAll(db *gorm.DB, baseLog *logger.Logger) All {
	return All{
		Person:          NewPersonRepo(db, baseLog),
		IngestJob:       NewIngestJobRepo(db, baseLog),
		Source:          NewSourceRepo(db, baseLog),
		Stage:           NewStageRepo(db, baseLog),
		StageSourceLink: NewStageSourceLinkRepo(db, baseLog),
		Chunk:           NewChunkRepo(db, baseLog),
		TimelineCard:    NewTimelineCardRepo(db, baseLog),
		ChatSession:     NewChatSessionRepo(db, baseLog),
		ChatMessage:     NewChatMessageRepo(db, baseLog),
	}
}
