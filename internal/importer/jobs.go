package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mealtrack/internal/meals"
	"mealtrack/internal/metrics"
	"mealtrack/internal/queue"
)

// JobStatus is the lifecycle of an asynchronous import.
type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// JobReport is what an admin polls for after submitting a file.
type JobReport struct {
	ID          string              `json:"id"`
	Status      JobStatus           `json:"status"`
	Filename    string              `json:"filename"`
	Report      *meals.ImportReport `json:"report,omitempty"`
	Error       string              `json:"error,omitempty"`
	SubmittedAt time.Time           `json:"submitted_at"`
	FinishedAt  *time.Time          `json:"finished_at,omitempty"`
}

// ReportStore persists serialized job reports.
type ReportStore interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
}

type jobBody struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Jobs runs roster imports off the request path.
type Jobs struct {
	svc     *meals.Service
	q       queue.Queue
	reports ReportStore
	log     *slog.Logger
	now     func() time.Time
}

// NewJobs wires the import service to a queue and a report store.
func NewJobs(svc *meals.Service, q queue.Queue, reports ReportStore, log *slog.Logger) *Jobs {
	if log == nil {
		log = slog.Default()
	}
	return &Jobs{svc: svc, q: q, reports: reports, log: log, now: time.Now}
}

// Submit records a pending job and enqueues the file. Only the extension is
// checked here; the file is parsed by whoever processes the job.
func (j *Jobs) Submit(ctx context.Context, filename string, data []byte) (JobReport, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx":
	default:
		return JobReport{}, ErrUnsupportedFormat
	}

	rep := JobReport{
		ID:          uuid.NewString(),
		Status:      JobPending,
		Filename:    filename,
		SubmittedAt: j.now().UTC(),
	}
	if err := j.save(ctx, rep); err != nil {
		return JobReport{}, err
	}

	body, err := json.Marshal(jobBody{Filename: filename, Data: data})
	if err != nil {
		return JobReport{}, err
	}
	if err := j.q.Publish(ctx, queue.Message{Type: queue.TypeImport, ID: rep.ID, Body: body}); err != nil {
		return JobReport{}, fmt.Errorf("enqueue import %s: %w", rep.ID, err)
	}
	return rep, nil
}

// Process runs one queued import and stores its final report. Parse and
// validation problems fail the job; only store errors are returned.
func (j *Jobs) Process(ctx context.Context, msg queue.Message) error {
	if msg.Type != queue.TypeImport {
		j.log.Warn("ignoring message", slog.String("type", msg.Type), slog.String("id", msg.ID))
		return nil
	}

	rep := JobReport{ID: msg.ID, Status: JobPending, SubmittedAt: j.now().UTC()}
	if prev, err := j.Report(ctx, msg.ID); err == nil && prev != nil {
		rep = *prev
	}

	var body jobBody
	if err := json.Unmarshal(msg.Body, &body); err != nil {
		return j.finish(ctx, rep, nil, fmt.Errorf("decode job: %w", err))
	}
	rep.Filename = body.Filename

	rows, err := Parse(body.Filename, body.Data)
	if err != nil {
		return j.finish(ctx, rep, nil, err)
	}
	report, err := j.svc.Import(ctx, rows)
	if err != nil {
		_ = j.finish(ctx, rep, nil, err)
		return err
	}
	return j.finish(ctx, rep, &report, nil)
}

// Run consumes the queue until ctx ends.
func (j *Jobs) Run(ctx context.Context) error {
	msgs, err := j.q.Consume(ctx)
	if err != nil {
		return err
	}
	for msg := range msgs {
		if err := j.Process(ctx, msg); err != nil {
			j.log.Error("import job failed", slog.String("id", msg.ID), slog.Any("err", err))
		}
	}
	return ctx.Err()
}

// Report returns nil, nil for unknown or expired jobs.
func (j *Jobs) Report(ctx context.Context, id string) (*JobReport, error) {
	b, err := j.reports.Get(ctx, id)
	if err != nil || b == nil {
		return nil, err
	}
	var rep JobReport
	if err := json.Unmarshal(b, &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &rep, nil
}

func (j *Jobs) finish(ctx context.Context, rep JobReport, report *meals.ImportReport, jobErr error) error {
	done := j.now().UTC()
	rep.FinishedAt = &done
	rep.Report = report
	rep.Status = JobDone
	if jobErr != nil {
		rep.Status = JobFailed
		rep.Error = jobErr.Error()
	}
	metrics.ObserveImportJob(string(rep.Status))
	return j.save(ctx, rep)
}

func (j *Jobs) save(ctx context.Context, rep JobReport) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	if err := j.reports.Put(ctx, rep.ID, b); err != nil {
		return fmt.Errorf("store report %s: %w", rep.ID, err)
	}
	return nil
}

// MemReports keeps job reports in process memory.
type MemReports struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemReports() *MemReports {
	return &MemReports{m: make(map[string][]byte)}
}

func (r *MemReports) Put(_ context.Context, id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[id] = append([]byte(nil), data...)
	return nil
}

func (r *MemReports) Get(_ context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.m[id], nil
}
