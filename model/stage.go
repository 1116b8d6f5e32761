package model

// IngestStage is a state of the ingestion state machine
type IngestStage string

const (
	StageReceived      IngestStage = "received"
	StageTextExtracted IngestStage = "text_extracted"
	StageChunked       IngestStage = "chunked"
	StageEmbedded      IngestStage = "embedded"
	StageStored        IngestStage = "stored"
	StageDone          IngestStage = "done"
	StageFailed        IngestStage = "failed"
)

// QueryStage names the step of answering a question
type QueryStage string

const (
	QueryStageEmbed    QueryStage = "embed"
	QueryStageRetrieve QueryStage = "retrieve"
	QueryStageGenerate QueryStage = "generate"
)
