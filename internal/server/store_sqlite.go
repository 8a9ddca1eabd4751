package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/eversols/autismquiz/internal/autismquiz"
)

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func intID(id int64) autismquiz.ID {
	return autismquiz.ID(strconv.FormatInt(id, 10))
}

func scanUser(row interface{ Scan(...any) error }, u *autismquiz.User, extra ...any) error {
	var id string
	var age sql.NullInt64
	dest := append([]any{&id, &u.Name, &u.Email, &age}, extra...)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	u.ID = autismquiz.ID(id)
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	return nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, name, email, passwordHash string) (autismquiz.User, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists)
	if err != nil {
		return autismquiz.User{}, err
	}
	if exists > 0 {
		return autismquiz.User{}, ErrEmailTaken
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)
	`, id, name, email, passwordHash)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return autismquiz.User{}, ErrEmailTaken
		}
		return autismquiz.User{}, err
	}
	return autismquiz.User{ID: autismquiz.ID(id), Name: name, Email: email}, nil
}

func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (autismquiz.User, string, error) {
	var u autismquiz.User
	var hash string
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, age, password_hash FROM users WHERE email = ?
	`, email)
	err := scanUser(row, &u, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return u, "", ErrNotFound
	}
	return u, hash, err
}

func (s *SQLiteStore) UserByID(ctx context.Context, id string) (autismquiz.User, error) {
	var u autismquiz.User
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email, age FROM users WHERE id = ?`, id)
	err := scanUser(row, &u)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrNotFound
	}
	return u, err
}

func (s *SQLiteStore) UpdateProfile(ctx context.Context, userID string, p autismquiz.Profile) (autismquiz.User, error) {
	var age sql.NullInt64
	if p.Age != nil {
		age = sql.NullInt64{Int64: int64(*p.Age), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET name = ?, age = ? WHERE id = ?`, p.Name, age, userID)
	if err != nil {
		return autismquiz.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return autismquiz.User{}, ErrNotFound
	}
	return s.UserByID(ctx, userID)
}

func (s *SQLiteStore) Settings(ctx context.Context, userID string) (autismquiz.Settings, error) {
	var st autismquiz.Settings
	var notifications, dataUsage int
	var visibility string
	err := s.db.QueryRowContext(ctx, `
		SELECT notifications_enabled, profile_visibility, data_usage
		FROM user_settings WHERE user_id = ?
	`, userID).Scan(&notifications, &visibility, &dataUsage)
	if errors.Is(err, sql.ErrNoRows) {
		return autismquiz.DefaultSettings(), nil
	}
	if err != nil {
		return st, err
	}
	st.NotificationsEnabled = notifications != 0
	st.ProfileVisibility = autismquiz.Visibility(visibility)
	st.DataUsage = dataUsage != 0
	return st, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, userID string, st autismquiz.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, notifications_enabled, profile_visibility, data_usage)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET notifications_enabled = excluded.notifications_enabled,
		    profile_visibility = excluded.profile_visibility,
		    data_usage = excluded.data_usage
	`, userID, boolInt(st.NotificationsEnabled), string(st.ProfileVisibility), boolInt(st.DataUsage))
	return err
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *SQLiteStore) CountQuizzes(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes`).Scan(&n)
	return n, err
}

// CreateQuiz inserts the quiz with its questions and options in order. IDs
// in q are ignored.
func (s *SQLiteStore) CreateQuiz(ctx context.Context, q QuizDetail) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var quizID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO quizzes (title, description) VALUES (?, ?) RETURNING id
	`, q.Title, q.Description).Scan(&quizID)
	if err != nil {
		return 0, fmt.Errorf("inserting quiz: %w", err)
	}

	for i, question := range q.Questions {
		var questionID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO questions (quiz_id, position, question_text) VALUES (?, ?, ?) RETURNING id
		`, quizID, i, question.QuestionText).Scan(&questionID)
		if err != nil {
			return 0, fmt.Errorf("inserting question %d: %w", i+1, err)
		}
		for j, opt := range question.Options {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO question_options (question_id, position, option_text, option_value)
				VALUES (?, ?, ?, ?)
			`, questionID, j, opt.OptionText, opt.OptionValue)
			if err != nil {
				return 0, fmt.Errorf("inserting option %d of question %d: %w", j+1, i+1, err)
			}
		}
	}

	return quizID, tx.Commit()
}

func (s *SQLiteStore) ListQuizzes(ctx context.Context) ([]autismquiz.QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, image_url FROM quizzes ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []autismquiz.QuizSummary{}
	for rows.Next() {
		var id int64
		var q autismquiz.QuizSummary
		if err := rows.Scan(&id, &q.Title, &q.Description, &q.ImageURL); err != nil {
			return nil, err
		}
		q.ID = intID(id)
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (s *SQLiteStore) Quiz(ctx context.Context, id int64) (QuizDetail, error) {
	q := QuizDetail{ID: id}
	err := s.db.QueryRowContext(ctx, `
		SELECT title, description FROM quizzes WHERE id = ?
	`, id).Scan(&q.Title, &q.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrNotFound
	}
	if err != nil {
		return q, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT qu.id, qu.question_text, o.id, o.option_text, o.option_value
		FROM questions qu
		JOIN question_options o ON o.question_id = qu.id
		WHERE qu.quiz_id = ?
		ORDER BY qu.position, o.position
	`, id)
	if err != nil {
		return q, err
	}
	defer rows.Close()

	q.Questions = []QuestionDetail{}
	for rows.Next() {
		var questionID int64
		var text string
		var opt OptionDetail
		if err := rows.Scan(&questionID, &text, &opt.ID, &opt.OptionText, &opt.OptionValue); err != nil {
			return q, err
		}
		if n := len(q.Questions); n == 0 || q.Questions[n-1].ID != questionID {
			q.Questions = append(q.Questions, QuestionDetail{ID: questionID, QuestionText: text})
		}
		last := &q.Questions[len(q.Questions)-1]
		last.Options = append(last.Options, opt)
	}
	return q, rows.Err()
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, userID string, quizID int64) (string, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM quizzes WHERE id = ?`, quizID).Scan(&exists); err != nil {
		return "", err
	}
	if exists == 0 {
		return "", ErrNotFound
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, user_id, quiz_id) VALUES (?, ?, ?)
	`, id, userID, quizID)
	return id, err
}

func (s *SQLiteStore) Assessment(ctx context.Context, id string) (Assessment, error) {
	a, err := scanAssessment(s.db.QueryRowContext(ctx, `
		SELECT a.id, a.user_id, a.quiz_id, q.title, a.total_score, a.created_at, a.submitted_at
		FROM assessments a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	if err != nil {
		return a, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT aa.question_id, aa.option_id, aa.answer_value
		FROM assessment_answers aa
		JOIN questions qu ON qu.id = aa.question_id
		WHERE aa.assessment_id = ?
		ORDER BY qu.position
	`, id)
	if err != nil {
		return a, err
	}
	defer rows.Close()

	for rows.Next() {
		var ar AnswerRecord
		if err := rows.Scan(&ar.QuestionID, &ar.OptionID, &ar.AnswerValue); err != nil {
			return a, err
		}
		a.Answers = append(a.Answers, ar)
	}
	return a, rows.Err()
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, userID string) ([]Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.user_id, a.quiz_id, q.title, a.total_score, a.created_at, a.submitted_at
		FROM assessments a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id = ?
		ORDER BY a.created_at DESC, a.rowid DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAssessment(row interface{ Scan(...any) error }) (Assessment, error) {
	var a Assessment
	var score sql.NullInt64
	var submittedAt sql.NullString
	err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &a.QuizTitle, &score, &a.CreatedAt, &submittedAt)
	if score.Valid {
		v := int(score.Int64)
		a.TotalScore = &v
	}
	if submittedAt.Valid {
		a.SubmittedAt = &submittedAt.String
	}
	return a, err
}

// SubmitAnswers records the answers and the score. An assessment accepts
// answers once.
func (s *SQLiteStore) SubmitAnswers(ctx context.Context, assessmentID string, answers []AnswerRecord, totalScore int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE assessments SET total_score = ?, submitted_at = `+nowExpr+`
		WHERE id = ? AND submitted_at IS NULL
	`, totalScore, assessmentID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadySubmitted
	}

	for _, a := range answers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO assessment_answers (assessment_id, question_id, option_id, answer_value)
			VALUES (?, ?, ?, ?)
		`, assessmentID, a.QuestionID, a.OptionID, a.AnswerValue)
		if err != nil {
			return fmt.Errorf("inserting answer for question %d: %w", a.QuestionID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CountResources(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) CreateResource(ctx context.Context, r autismquiz.Resource) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO resources (title, type, description, image, url, is_featured)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Title, string(r.Type), r.Description, r.Image, r.URL, boolInt(bool(r.IsFeatured)))
	return err
}

func (s *SQLiteStore) ListResources(ctx context.Context) ([]autismquiz.Resource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, type, description, image, url, is_featured
		FROM resources ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := []autismquiz.Resource{}
	for rows.Next() {
		var id int64
		var featured int
		var typ string
		var r autismquiz.Resource
		if err := rows.Scan(&id, &r.Title, &typ, &r.Description, &r.Image, &r.URL, &featured); err != nil {
			return nil, err
		}
		r.ID = intID(id)
		r.Type = autismquiz.ResourceType(typ)
		r.IsFeatured = featured != 0
		resources = append(resources, r)
	}
	return resources, rows.Err()
}
