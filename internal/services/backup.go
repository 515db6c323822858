package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"
)

// backupTables is the full relational surface dumped into each snapshot.
var backupTables = []string{
	"articles",
	"categories",
	"comments",
	"user_reputation",
	"mystery_challenges",
	"challenge_theories",
	"theory_votes",
	"whitelisted_ips",
	"users",
	"user_roles",
}

type Snapshot struct {
	Timestamp string                              `json:"timestamp"`
	Version   string                              `json:"version"`
	Tables    map[string][]map[string]interface{} `json:"tables"`
	Metadata  SnapshotMetadata                    `json:"metadata"`
}

type SnapshotMetadata struct {
	TotalTables  int `json:"total_tables"`
	TotalRecords int `json:"total_records"`
}

type objectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// BackupService dumps and restores the whole schema as timestamped JSON
// snapshots in an S3 bucket.
type BackupService struct {
	DB            *sqlx.DB
	Store         objectStore
	Bucket        string
	RetentionDays int
}

func NewBackupService(ctx context.Context, db *sqlx.DB, region, accessKey, secretKey, bucket string, retentionDays int) (*BackupService, error) {
	creds := credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &BackupService{
		DB:            db,
		Store:         s3.NewFromConfig(awsCfg),
		Bucket:        bucket,
		RetentionDays: retentionDays,
	}, nil
}

// Run dumps every table, uploads the snapshot, then sweeps expired ones.
// Tables are dumped concurrently; the snapshot is assembled under a lock.
func (s *BackupService) Run(ctx context.Context) (string, []string, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	snapshot := Snapshot{
		Timestamp: timestamp,
		Version:   "1.0",
		Tables:    make(map[string][]map[string]interface{}, len(backupTables)),
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	for _, table := range backupTables {
		table := table
		group.Go(func() error {
			rows, err := s.dumpTable(groupCtx, table)
			if err != nil {
				return fmt.Errorf("backup %s: %w", table, err)
			}
			mu.Lock()
			snapshot.Tables[table] = rows
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", nil, err
	}

	total := 0
	for _, rows := range snapshot.Tables {
		total += len(rows)
	}
	snapshot.Metadata = SnapshotMetadata{TotalTables: len(backupTables), TotalRecords: total}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	fileName := SnapshotFileName(timestamp)
	_, err = s.Store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", nil, fmt.Errorf("upload backup: %w", err)
	}
	log.Printf("backup uploaded: %s (%d records)", fileName, total)

	if err := s.sweep(ctx); err != nil {
		log.Printf("backup sweep: %v", err)
	}
	return fileName, backupTables, nil
}

// Restore downloads a named snapshot and upserts its rows table by table.
func (s *BackupService) Restore(ctx context.Context, fileName string) ([]string, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, ErrBadRequest("Backup file name is required")
	}
	out, err := s.Store.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(fileName),
	})
	if err != nil {
		return nil, fmt.Errorf("download backup: %w", err)
	}
	defer out.Body.Close()
	payload, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}

	restored := make([]string, 0, len(snapshot.Tables))
	// Restore in the canonical order so foreign keys resolve.
	for _, table := range backupTables {
		rows, ok := snapshot.Tables[table]
		if !ok || len(rows) == 0 {
			continue
		}
		if err := s.restoreTable(ctx, table, rows); err != nil {
			return restored, fmt.Errorf("restore %s: %w", table, err)
		}
		restored = append(restored, table)
	}
	return restored, nil
}

func (s *BackupService) dumpTable(ctx context.Context, table string) ([]map[string]interface{}, error) {
	rows, err := s.DB.QueryxContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []map[string]interface{}{}
	for rows.Next() {
		record := map[string]interface{}{}
		if err := rows.MapScan(record); err != nil {
			return nil, err
		}
		for key, value := range record {
			if raw, ok := value.([]byte); ok {
				record[key] = string(raw)
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *BackupService) restoreTable(ctx context.Context, table string, rows []map[string]interface{}) error {
	for _, row := range rows {
		columns := make([]string, 0, len(row))
		for column := range row {
			columns = append(columns, column)
		}
		placeholders := make([]string, len(columns))
		values := make([]interface{}, len(columns))
		updates := make([]string, 0, len(columns))
		for i, column := range columns {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			values[i] = row[column]
			if column != "id" {
				updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", column, column))
			}
		}
		query := fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
			table,
			strings.Join(columns, ", "),
			strings.Join(placeholders, ", "),
			strings.Join(updates, ", "),
		)
		if _, err := s.DB.ExecContext(ctx, query, values...); err != nil {
			return err
		}
	}
	return nil
}

// sweep removes snapshots older than the retention window.
func (s *BackupService) sweep(ctx context.Context) error {
	retention := s.RetentionDays
	if retention <= 0 {
		retention = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retention)
	out, err := s.Store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.Bucket),
		Prefix: aws.String("backup-"),
	})
	if err != nil {
		return err
	}
	for _, object := range out.Contents {
		if object.Key == nil || object.LastModified == nil {
			continue
		}
		if object.LastModified.Before(cutoff) {
			log.Printf("deleting old backup: %s", *object.Key)
			_, err := s.Store.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.Bucket),
				Key:    object.Key,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// SnapshotFileName converts an RFC3339 timestamp into an object key.
func SnapshotFileName(timestamp string) string {
	replacer := strings.NewReplacer(":", "-", ".", "-")
	return "backup-" + replacer.Replace(timestamp) + ".json"
}
