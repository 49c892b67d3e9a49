package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/nakarin/jobmatch/internal/marketplace"
)

// Default text columns fed into the embedding model, matching what the
// marketplace app concatenates for each side.
var (
	JobTextFields    = []string{marketplace.FieldJobType, marketplace.FieldJobDetail}
	WorkerTextFields = []string{marketplace.FieldJobType, marketplace.FieldSkills}
)

// Encoder turns text into fixed-length dense vectors. Implementations must
// be deterministic: the same text yields the same vector.
type Encoder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// TextSource is any record exposing named text columns. Unknown or unset
// columns resolve to "".
type TextSource interface {
	TextField(name string) string
}

// JoinFields concatenates the named columns with single spaces, in the
// given fixed order. Field order is part of the encoding contract: it must
// match between training and serving.
func JoinFields(r TextSource, fields []string) string {
	parts := make([]string, len(fields))
	for i, name := range fields {
		parts[i] = r.TextField(name)
	}
	return strings.Join(parts, " ")
}

// EncodeJobs annotates every posting with its embedding vector. An empty
// collection is a no-op and never reaches the encoder.
func EncodeJobs(ctx context.Context, enc Encoder, jobs *marketplace.Jobs, fields []string) error {
	if jobs.Len() == 0 {
		return nil
	}
	if len(fields) == 0 {
		fields = JobTextFields
	}

	texts := make([]string, jobs.Len())
	for i, job := range jobs.Items {
		texts[i] = JoinFields(job, fields)
	}

	vectors, err := enc.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed job postings: %w", err)
	}
	if len(vectors) != jobs.Len() {
		return fmt.Errorf("embed job postings: got %d vectors for %d records", len(vectors), jobs.Len())
	}

	for i, job := range jobs.Items {
		job.SetEmbedding(vectors[i])
	}
	return nil
}

// EncodeWorkers annotates every profile with its embedding vector.
func EncodeWorkers(ctx context.Context, enc Encoder, workers *marketplace.Workers, fields []string) error {
	if workers.Len() == 0 {
		return nil
	}
	if len(fields) == 0 {
		fields = WorkerTextFields
	}

	texts := make([]string, workers.Len())
	for i, worker := range workers.Items {
		texts[i] = JoinFields(worker, fields)
	}

	vectors, err := enc.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed worker profiles: %w", err)
	}
	if len(vectors) != workers.Len() {
		return fmt.Errorf("embed worker profiles: got %d vectors for %d records", len(vectors), workers.Len())
	}

	for i, worker := range workers.Items {
		worker.SetEmbedding(vectors[i])
	}
	return nil
}
