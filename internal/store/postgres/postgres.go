// Package postgres is the relational Store backend. Nested documents
// (preferences, device tokens, daily scores, notification data) live in JSONB
// columns so the row shape mirrors the document shape.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fastingFriendsAPI/internal/apperr"
	"fastingFriendsAPI/internal/challenge"
	"fastingFriendsAPI/internal/fasting"
	"fastingFriendsAPI/internal/friendship"
	"fastingFriendsAPI/internal/notification"
	"fastingFriendsAPI/internal/store"
	"fastingFriendsAPI/internal/user"
	"fastingFriendsAPI/internal/weight"
)

const (
	userColumns         = `id, phone_number, display_name, photo_url, fasting_preferences, timezone, active_challenge_id, user_state, weight_goal, notification_preferences, device_tokens, created_at, last_active`
	recordColumns       = `id, user_id, date, start_time, target_end_time, actual_end_time, fasting_type, target_duration, actual_duration, completion_percentage, status, challenge_id, notes`
	challengeColumns    = `id, name, description, creator_id, start_date, end_date, fasting_type, participants, status, invite_code, is_public, created_at`
	participantColumns  = `id, challenge_id, user_id, joined_at, daily_scores, total_score, completed_days, rank`
	weightColumns       = `id, user_id, weight, date`
	notificationColumns = `id, user_id, type, title, message, data, is_read, created_at`
	friendshipColumns   = `id, user1_id, user2_id, status, initiated_by, created_at, updated_at`
)

type Store struct {
	db *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, config)
}

func New(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

// getOne runs a single-row query into T, mapping no rows to NotFoundError.
func getOne[T any](ctx context.Context, db *pgxpool.Pool, kind, id, query string, args ...any) (*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	v, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(kind, id)
		}
		return nil, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	return v, nil
}

func list[T any](ctx context.Context, db *pgxpool.Pool, kind, query string, args ...any) ([]*T, error) {
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	return out, nil
}

// exec runs a write that must touch exactly one row.
func (s *Store) exec(ctx context.Context, kind, id, query string, args ...any) error {
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(kind, id)
	}
	return nil
}

// ---- users

func (s *Store) GetUser(ctx context.Context, id string) (*user.Profile, error) {
	return getOne[user.Profile](ctx, s.db, "user", id, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *Store) SaveUser(ctx context.Context, p *user.Profile) error {
	tokens := p.DeviceTokens
	if tokens == nil {
		tokens = []notification.DeviceToken{}
	}
	query := `
	INSERT INTO users (` + userColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		phone_number = EXCLUDED.phone_number,
		display_name = EXCLUDED.display_name,
		photo_url = EXCLUDED.photo_url,
		fasting_preferences = EXCLUDED.fasting_preferences,
		timezone = EXCLUDED.timezone,
		active_challenge_id = EXCLUDED.active_challenge_id,
		user_state = EXCLUDED.user_state,
		weight_goal = EXCLUDED.weight_goal,
		notification_preferences = EXCLUDED.notification_preferences,
		device_tokens = EXCLUDED.device_tokens,
		last_active = EXCLUDED.last_active
	`
	_, err := s.db.Exec(ctx, query,
		p.ID, p.PhoneNumber, p.DisplayName, p.PhotoURL, p.FastingPreferences, p.Timezone,
		p.ActiveChallengeID, p.State, p.WeightGoal, p.NotificationPreferences, tokens,
		p.CreatedAt, p.LastActive,
	)
	if err != nil {
		return fmt.Errorf("failed to save user %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) SetUserChallenge(ctx context.Context, userID string, challengeID *string, state user.State) error {
	return s.exec(ctx, "user", userID,
		`UPDATE users SET active_challenge_id = $2, user_state = $3 WHERE id = $1`,
		userID, challengeID, state)
}

func (s *Store) AddDeviceToken(ctx context.Context, userID string, token notification.DeviceToken) error {
	entry := []notification.DeviceToken{token}
	return s.exec(ctx, "user", userID, `
	UPDATE users SET device_tokens = CASE
		WHEN device_tokens @> jsonb_build_array(jsonb_build_object('token', $3::text)) THEN device_tokens
		ELSE device_tokens || $2::jsonb
	END
	WHERE id = $1`, userID, entry, token.Token)
}

// ---- fasting records

func (s *Store) CreateFastingRecord(ctx context.Context, r *fasting.Record) error {
	r.ID = newID(r.ID)
	_, err := s.db.Exec(ctx, `
	INSERT INTO fasting_records (`+recordColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		r.ID, r.UserID, r.Date, r.StartTime, r.TargetEndTime, r.ActualEndTime, r.FastingType,
		r.TargetDuration, r.ActualDuration, r.CompletionPercentage, r.Status, r.ChallengeID, r.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to create fasting record: %w", err)
	}
	return nil
}

func (s *Store) GetFastingRecord(ctx context.Context, id string) (*fasting.Record, error) {
	return getOne[fasting.Record](ctx, s.db, "fasting record", id, `SELECT `+recordColumns+` FROM fasting_records WHERE id = $1`, id)
}

func (s *Store) FinishFastingRecord(ctx context.Context, r *fasting.Record) error {
	tag, err := s.db.Exec(ctx, `
	UPDATE fasting_records
	SET actual_end_time = $2, actual_duration = $3, completion_percentage = $4, status = $5, notes = $6
	WHERE id = $1 AND status = $7`,
		r.ID, r.ActualEndTime, r.ActualDuration, r.CompletionPercentage, r.Status, r.Notes, fasting.StatusOngoing)
	if err != nil {
		return fmt.Errorf("failed to write fasting record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetFastingRecord(ctx, r.ID); err != nil {
			return err
		}
		return apperr.FastAlreadyEnded()
	}
	return nil
}

func (s *Store) ListFastingRecords(ctx context.Context, userID string) ([]*fasting.Record, error) {
	return list[fasting.Record](ctx, s.db, "fasting records", `SELECT `+recordColumns+` FROM fasting_records WHERE user_id = $1`, userID)
}

func (s *Store) ListOngoingFasts(ctx context.Context) ([]*fasting.Record, error) {
	return list[fasting.Record](ctx, s.db, "fasting records", `SELECT `+recordColumns+` FROM fasting_records WHERE status = $1`, fasting.StatusOngoing)
}

// ---- challenges

func (s *Store) CreateChallenge(ctx context.Context, c *challenge.Challenge) error {
	c.ID = newID(c.ID)
	participants := c.Participants
	if participants == nil {
		participants = []string{}
	}
	_, err := s.db.Exec(ctx, `
	INSERT INTO challenges (`+challengeColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Description, c.CreatorID, c.StartDate, c.EndDate, c.FastingType,
		participants, c.Status, c.InviteCode, c.IsPublic, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *Store) GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error) {
	return getOne[challenge.Challenge](ctx, s.db, "challenge", id, `SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
}

func (s *Store) FindChallengesByInviteCode(ctx context.Context, code string) ([]*challenge.Challenge, error) {
	return list[challenge.Challenge](ctx, s.db, "challenges", `SELECT `+challengeColumns+` FROM challenges WHERE invite_code = $1 ORDER BY created_at`, code)
}

func (s *Store) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	return list[challenge.Challenge](ctx, s.db, "challenges", `SELECT `+challengeColumns+` FROM challenges WHERE status = $1`, challenge.StatusActive)
}

func (s *Store) UpdateChallengeParticipants(ctx context.Context, id string, participants []string) error {
	if participants == nil {
		participants = []string{}
	}
	return s.exec(ctx, "challenge", id, `UPDATE challenges SET participants = $2 WHERE id = $1`, id, participants)
}

func (s *Store) UpdateChallengeStatus(ctx context.Context, id string, status challenge.Status) error {
	return s.exec(ctx, "challenge", id, `UPDATE challenges SET status = $2 WHERE id = $1`, id, status)
}

// ---- participants

func (s *Store) CreateParticipant(ctx context.Context, p *challenge.Participant) error {
	p.ID = newID(p.ID)
	scores := p.DailyScores
	if scores == nil {
		scores = []challenge.DailyScore{}
	}
	_, err := s.db.Exec(ctx, `
	INSERT INTO challenge_participants (`+participantColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.ChallengeID, p.UserID, p.JoinedAt, scores, p.TotalScore, p.CompletedDays, p.Rank,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge participant: %w", err)
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, challengeID, userID string) (*challenge.Participant, error) {
	return getOne[challenge.Participant](ctx, s.db, "challenge participant", challengeID+"/"+userID,
		`SELECT `+participantColumns+` FROM challenge_participants WHERE challenge_id = $1 AND user_id = $2 LIMIT 1`,
		challengeID, userID)
}

func (s *Store) ListParticipants(ctx context.Context, challengeID string) ([]*challenge.Participant, error) {
	return list[challenge.Participant](ctx, s.db, "challenge participants",
		`SELECT `+participantColumns+` FROM challenge_participants WHERE challenge_id = $1 ORDER BY joined_at`, challengeID)
}

func (s *Store) SaveParticipant(ctx context.Context, p *challenge.Participant) error {
	scores := p.DailyScores
	if scores == nil {
		scores = []challenge.DailyScore{}
	}
	return s.exec(ctx, "challenge participant", p.ID, `
	UPDATE challenge_participants
	SET daily_scores = $2, total_score = $3, completed_days = $4, rank = $5
	WHERE id = $1`,
		p.ID, scores, p.TotalScore, p.CompletedDays, p.Rank)
}

func (s *Store) DeleteParticipant(ctx context.Context, id string) error {
	return s.exec(ctx, "challenge participant", id, `DELETE FROM challenge_participants WHERE id = $1`, id)
}

// ---- weights

func (s *Store) AddWeightRecord(ctx context.Context, r *weight.Record) error {
	r.ID = newID(r.ID)
	_, err := s.db.Exec(ctx, `INSERT INTO weight_records (`+weightColumns+`) VALUES ($1, $2, $3, $4)`,
		r.ID, r.UserID, r.Weight, r.Date)
	if err != nil {
		return fmt.Errorf("failed to add weight record: %w", err)
	}
	return nil
}

func (s *Store) ListWeightRecords(ctx context.Context, userID string) ([]*weight.Record, error) {
	return list[weight.Record](ctx, s.db, "weight records", `SELECT `+weightColumns+` FROM weight_records WHERE user_id = $1`, userID)
}

// ---- notifications

func (s *Store) CreateNotification(ctx context.Context, n *notification.Notification) error {
	n.ID = newID(n.ID)
	data := n.Data
	if data == nil {
		data = map[string]any{}
	}
	_, err := s.db.Exec(ctx, `
	INSERT INTO notifications (`+notificationColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, data, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*notification.Notification, error) {
	return list[notification.Notification](ctx, s.db, "notifications",
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	return s.exec(ctx, "notification", id, `UPDATE notifications SET is_read = true WHERE id = $1 AND user_id = $2`, id, userID)
}

// ---- friendships

func (s *Store) CreateFriendship(ctx context.Context, f *friendship.Friendship) error {
	f.ID = newID(f.ID)
	_, err := s.db.Exec(ctx, `
	INSERT INTO friendships (`+friendshipColumns+`)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		f.ID, f.User1ID, f.User2ID, f.Status, f.InitiatedBy, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

func (s *Store) GetFriendship(ctx context.Context, id string) (*friendship.Friendship, error) {
	return getOne[friendship.Friendship](ctx, s.db, "friendship", id, `SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`, id)
}

func (s *Store) FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error) {
	return getOne[friendship.Friendship](ctx, s.db, "friendship", a+"/"+b, `
	SELECT `+friendshipColumns+` FROM friendships
	WHERE (user1_id = $1 AND user2_id = $2) OR (user1_id = $2 AND user2_id = $1)
	LIMIT 1`, a, b)
}

func (s *Store) ListFriendships(ctx context.Context, userID string) ([]*friendship.Friendship, error) {
	return list[friendship.Friendship](ctx, s.db, "friendships",
		`SELECT `+friendshipColumns+` FROM friendships WHERE user1_id = $1 OR user2_id = $1 ORDER BY created_at`, userID)
}

func (s *Store) UpdateFriendshipStatus(ctx context.Context, id string, status friendship.FriendshipStatus, at time.Time) error {
	return s.exec(ctx, "friendship", id, `UPDATE friendships SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
}

func (s *Store) DeleteFriendship(ctx context.Context, id string) error {
	return s.exec(ctx, "friendship", id, `DELETE FROM friendships WHERE id = $1`, id)
}
