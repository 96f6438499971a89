package db

import (
	"context"
	"database/sql"
	"fmt"

	"tunereel/pkg/model"
)

// RecordJob inserts a new job-history row at submission time.
func (d *DB) RecordJob(ctx context.Context, jobID, filePath string) error {
	_, err := d.ExecContext(ctx,
		`INSERT OR REPLACE INTO jobs (job_id, file_path, status, progress, message) VALUES (?, ?, ?, 0, '')`,
		jobID, filePath, string(model.StatusGenerating))
	if err != nil {
		return fmt.Errorf("failed to record job: %w", err)
	}
	return nil
}

// UpdateJobProgress stores the latest observed progress for a job.
func (d *DB) UpdateJobProgress(ctx context.Context, jobID string, p model.GenerationProgress) error {
	_, err := d.ExecContext(ctx,
		`UPDATE jobs SET status = ?, progress = ?, message = ? WHERE job_id = ?`,
		string(p.Status), p.Progress, p.Message, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// CompleteJob marks a job terminal and stores the video path, if any.
func (d *DB) CompleteJob(ctx context.Context, jobID string, status model.Status, videoPath string) error {
	_, err := d.ExecContext(ctx,
		`UPDATE jobs SET status = ?, video_path = ?, completed_at = CURRENT_TIMESTAMP WHERE job_id = ?`,
		string(status), videoPath, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return nil
}

// ListJobs returns job history, newest first.
func (d *DB) ListJobs(ctx context.Context, limit int) ([]model.JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.QueryContext(ctx,
		`SELECT job_id, file_path, status, progress, message, COALESCE(video_path, ''), created_at, COALESCE(completed_at, '')
		 FROM jobs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var out []model.JobRecord
	for rows.Next() {
		var r model.JobRecord
		var status string
		if err := rows.Scan(&r.ID, &r.FilePath, &status, &r.Progress, &r.Message, &r.VideoPath, &r.CreatedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		r.Status = model.Status(status)
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetJob returns a single job record.
func (d *DB) GetJob(ctx context.Context, jobID string) (*model.JobRecord, error) {
	row := d.QueryRowContext(ctx,
		`SELECT job_id, file_path, status, progress, message, COALESCE(video_path, ''), created_at, COALESCE(completed_at, '')
		 FROM jobs WHERE job_id = ?`, jobID)

	var r model.JobRecord
	var status string
	if err := row.Scan(&r.ID, &r.FilePath, &status, &r.Progress, &r.Message, &r.VideoPath, &r.CreatedAt, &r.CompletedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	r.Status = model.Status(status)
	return &r, nil
}

// DeleteJob removes a job-history row.
func (d *DB) DeleteJob(ctx context.Context, jobID string) error {
	_, err := d.ExecContext(ctx, `DELETE FROM jobs WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
