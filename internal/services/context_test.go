package services_test

import (
	"context"
	"testing"

	"github.com/liyanghua/xhs-video-tool/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStage(ctx, "mix-audio")
	ctx = services.WithSegment(ctx, "intro")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "mix-audio" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if segment, ok := services.SegmentFromContext(ctx); !ok || segment != "intro" {
		t.Fatalf("unexpected segment: %v %v", segment, ok)
	}
}

func TestStageBlankPreservesContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
}
