// Alert Store - alerts 테이블에 대한 모든 SQL 정의
//
// 실패 처리 방침:
//   - 모든 연산은 bounded timeout 안에서 실행
//   - ingestion 경로(IsAlertReceived)는 장애 시 안전한 기본값(false)을
//     반환하고 로그만 남김 - 저장소 장애가 수신을 막으면 안 됨
//   - GetAlertStatistics도 빈 통계로 강등 (모니터링용이므로)
//   - 나머지는 에러를 반환하고 호출자(Worker/handler)가 처리 방식을 결정

package db

import (
	"context"
	"log"
	"time"

	"github.com/k-fix/backend/internal/model"
)

// EnsureAlertSchema - alerts 테이블 및 인덱스 생성
func (db *Postgres) EnsureAlertSchema(ctx context.Context) error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS alerts (
			alert_hash VARCHAR(64) PRIMARY KEY,
			payload JSONB NOT NULL,
			enriched_data JSONB NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'received',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			processed_at TIMESTAMPTZ NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			error_message TEXT NULL
		)
		`,
		// pending 스캔용: WHERE status = 'received' AND created_at < ... ORDER BY created_at
		`CREATE INDEX IF NOT EXISTS alerts_status_created_idx ON alerts(status, created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Pool.Exec(ctx, query); err != nil {
			return err
		}
	}
	return nil
}

// IsAlertReceived - 해당 hash가 이미 수신되었는지 확인
// 타임아웃/연결 장애는 false로 처리 (ingestion을 막지 않음)
func (db *Postgres) IsAlertReceived(ctx context.Context, hash string) bool {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM alerts WHERE alert_hash = $1)`
	if err := db.Pool.QueryRow(ctx, query, hash).Scan(&exists); err != nil {
		log.Printf("Failed to check alert existence (hash=%s): %v", shortHash(hash), err)
		return false
	}
	return exists
}

// SaveAlert - insert-or-ignore
// 같은 hash의 동시 중복 INSERT는 PK conflict로 조용히 흡수됨 (에러 아님)
func (db *Postgres) SaveAlert(ctx context.Context, hash string, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		INSERT INTO alerts (alert_hash, payload)
		VALUES ($1, $2)
		ON CONFLICT (alert_hash) DO NOTHING
	`
	if _, err := db.Pool.Exec(ctx, query, hash, payload); err != nil {
		return err
	}

	log.Printf("Saved alert (hash=%s)", shortHash(hash))
	return nil
}

// UpdateAlertStatus - 상태 전이를 단일 UPDATE로 기록 (all-or-nothing)
//
// 규칙:
//   - resolved(종료 성공): processed_at을 찍고 retry_count는 건드리지 않음
//   - 그 외 모든 상태: retry_count + 1, error_message/enriched_data가 있으면 기록
func (db *Postgres) UpdateAlertStatus(ctx context.Context, hash string, status model.AlertStatus, errorMessage string, enrichedData []byte) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var errPtr *string
	if errorMessage != "" {
		errPtr = &errorMessage
	}

	query := `
		UPDATE alerts
		SET status = $2,
			updated_at = NOW(),
			processed_at = CASE WHEN $5 THEN NOW() ELSE processed_at END,
			retry_count = CASE WHEN $5 THEN retry_count ELSE retry_count + 1 END,
			error_message = COALESCE($3, error_message),
			enriched_data = COALESCE($4, enriched_data)
		WHERE alert_hash = $1
	`
	terminal := status == model.StatusResolved

	if _, err := db.Pool.Exec(ctx, query, hash, status.String(), errPtr, enrichedData, terminal); err != nil {
		return err
	}

	log.Printf("Updated alert status (hash=%s, status=%s)", shortHash(hash), status)
	return nil
}

// GetPendingAlerts - 처리 대상 알림 조회
// received 상태이면서 grace window보다 오래된 것만, 오래된 순으로 최대 limit개
// 조회 실패는 에러로 반환 - Worker가 backoff 주기로 전환할지 결정
func (db *Postgres) GetPendingAlerts(ctx context.Context, limit int, grace time.Duration) ([]model.PendingAlert, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := `
		SELECT alert_hash, payload
		FROM alerts
		WHERE status = 'received'
		AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	cutoff := time.Now().Add(-grace)

	rows, err := db.Pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []model.PendingAlert
	for rows.Next() {
		var p model.PendingAlert
		if err := rows.Scan(&p.Hash, &p.Payload); err != nil {
			return nil, err
		}
		pending = append(pending, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return pending, nil
}

// GetAlertStatistics - 상태별 카운트 + 최근 10건 요약 (모니터링용, hot path 아님)
func (db *Postgres) GetAlertStatistics(ctx context.Context) model.AlertStatistics {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stats := model.AlertStatistics{
		AlertCounts:  map[string]int{},
		RecentAlerts: []model.RecentAlertSummary{},
	}

	rows, err := db.Pool.Query(ctx, `SELECT status, COUNT(*) FROM alerts GROUP BY status`)
	if err != nil {
		log.Printf("Failed to get alert counts: %v", err)
		return stats
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			log.Printf("Failed to scan alert count: %v", err)
			return stats
		}
		stats.AlertCounts[status] = count
	}
	rows.Close()

	recent, err := db.Pool.Query(ctx, `
		SELECT alert_hash, status, created_at, updated_at
		FROM alerts
		ORDER BY created_at DESC
		LIMIT 10
	`)
	if err != nil {
		log.Printf("Failed to get recent alerts: %v", err)
		return stats
	}
	defer recent.Close()

	for recent.Next() {
		var s model.RecentAlertSummary
		if err := recent.Scan(&s.Hash, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			log.Printf("Failed to scan recent alert: %v", err)
			return stats
		}
		s.Hash = shortHash(s.Hash)
		stats.RecentAlerts = append(stats.RecentAlerts, s)
	}

	return stats
}

// CleanupOldAlerts - 종료 상태로 전환된 지 olderThan이 지난 row 삭제
// 반환값은 삭제된 row 수
func (db *Postgres) CleanupOldAlerts(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, cleanupTimeout)
	defer cancel()

	query := `
		DELETE FROM alerts
		WHERE status IN ('resolved', 'failed')
		AND updated_at < $1
	`
	cutoff := time.Now().Add(-olderThan)

	tag, err := db.Pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}

	deleted := tag.RowsAffected()
	log.Printf("Cleaned up %d old alerts", deleted)
	return deleted, nil
}

// 로그에는 hash 앞 8자리만 노출
func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
