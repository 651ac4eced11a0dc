package domain

import (
	"github.com/yungbote/lifeline-backend/internal/domain/chat"
	"github.com/yungbote/lifeline-backend/internal/domain/evidence"
	"github.com/yungbote/lifeline-backend/internal/domain/people"
)

const (
	PersonStatusPending    = people.PersonStatusPending
	PersonStatusProcessing = people.PersonStatusProcessing
	PersonStatusReady      = people.PersonStatusReady
	PersonStatusFailed     = people.PersonStatusFailed

	PhaseDiscover = people.PhaseDiscover
	PhaseExtract  = people.PhaseExtract
	PhaseStage    = people.PhaseStage
	PhaseEmbed    = people.PhaseEmbed
	PhasePublish  = people.PhasePublish

	JobStatusQueued  = people.JobStatusQueued
	JobStatusRunning = people.JobStatusRunning
	JobStatusDone    = people.JobStatusDone
	JobStatusFailed  = people.JobStatusFailed

	SourceTypeArticle   = evidence.SourceTypeArticle
	SourceTypeVideo     = evidence.SourceTypeVideo
	SourceTypePost      = evidence.SourceTypePost
	SourceTypeInterview = evidence.SourceTypeInterview
	SourceTypeOther     = evidence.SourceTypeOther

	CardTypeMoment       = evidence.CardTypeMoment
	CardTypeQuote        = evidence.CardTypeQuote
	CardTypeTurningPoint = evidence.CardTypeTurningPoint
	CardTypeMedia        = evidence.CardTypeMedia
	CardTypeImage        = evidence.CardTypeImage
	CardTypeVideo        = evidence.CardTypeVideo

	RoleUser      = chat.RoleUser
	RoleAssistant = chat.RoleAssistant
)

type (
	Person    = people.Person
	IngestJob = people.IngestJob

	Source          = evidence.Source
	SourceMetadata  = evidence.SourceMetadata
	Stage           = evidence.Stage
	StageSourceLink = evidence.StageSourceLink
	Chunk           = evidence.Chunk
	ChunkCitation   = evidence.ChunkCitation
	TimelineCard    = evidence.TimelineCard

	ChatSession = chat.ChatSession
	ChatMessage = chat.ChatMessage
	Citation    = chat.Citation
)

// Phases returns the canonical ingestion phase order.
func Phases() []string { return people.Phases() }
