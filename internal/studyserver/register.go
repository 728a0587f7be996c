// Package studyserver exposes the study pipeline as MCP tools.
package studyserver

import (
	"context"
	"errors"
	"time"

	"github.com/anatolykoptev/go_study/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Processor is the part of the pipeline the tools need.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
	GetVideoMaterials(ctx context.Context, rowID string) (*pipeline.Materials, error)
}

// MaterialsInput is the input for get_video_materials.
type MaterialsInput struct {
	ID string `json:"id" jsonschema:"Row id of a processed video (the video.id returned by process_video)"`
}

// RegisterTools registers process_video and get_video_materials.
// timeout bounds one process_video call; 0 means no limit.
func RegisterTools(server *mcp.Server, proc Processor, timeout time.Duration) {
	registerProcessVideo(server, proc, timeout)
	registerGetVideoMaterials(server, proc)
}

func registerProcessVideo(server *mcp.Server, proc Processor, timeout time.Duration) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_video",
		Description: "Turn a YouTube video into study material. Fetches metadata and a transcript (captions, or a synthetic fallback), writes a summary, flashcards and a multiple-choice quiz, and stores them. Returns the stored video row, the number of flashcards and the quiz with its questions.",
	}, processVideo(proc, timeout))
}

func processVideo(proc Processor, timeout time.Duration) mcp.ToolHandlerFor[pipeline.Request, *pipeline.Result] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input pipeline.Request) (*mcp.CallToolResult, *pipeline.Result, error) {
		if input.YouTubeURL == "" {
			return nil, nil, errors.New("youtubeUrl is required")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		result, err := proc.Process(ctx, input)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	}
}

func registerGetVideoMaterials(server *mcp.Server, proc Processor) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_video_materials",
		Description: "Read back a processed video with its flashcards and quizzes. Quiz questions are ordered by order_index.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, getVideoMaterials(proc))
}

func getVideoMaterials(proc Processor) mcp.ToolHandlerFor[MaterialsInput, *pipeline.Materials] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input MaterialsInput) (*mcp.CallToolResult, *pipeline.Materials, error) {
		if input.ID == "" {
			return nil, nil, errors.New("id is required")
		}
		result, err := proc.GetVideoMaterials(ctx, input.ID)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	}
}
