package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/lvdashuaibi/littlepoll/config"
	"github.com/lvdashuaibi/littlepoll/internal/model"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// SQLRepository 问题、选项与投票日志的关系型存储，写主库读从库
type SQLRepository struct {
	driver   string
	masterDB *sql.DB
	slaveDB  *sql.DB
}

func NewSQLRepository(cfg config.DatabaseConfig) (*SQLRepository, error) {
	const op = "repository.NewSQLRepository"

	masterDB, err := openDB(cfg.Driver, cfg.Master, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: 连接主数据库失败: %w", op, err)
	}

	if err = masterDB.Ping(); err != nil {
		masterDB.Close()
		return nil, fmt.Errorf("%s: 主数据库连接测试失败: %w", op, err)
	}

	slaveDB := masterDB
	if cfg.Slave != "" && cfg.Slave != cfg.Master {
		replica, err := openDB(cfg.Driver, cfg.Slave, cfg)
		if err != nil {
			masterDB.Close()
			return nil, fmt.Errorf("%s: 连接从数据库失败: %w", op, err)
		}
		if err = replica.Ping(); err != nil {
			// 从库不可用时退回主库
			replica.Close()
		} else {
			slaveDB = replica
		}
	}

	return NewSQLRepositoryFromDB(cfg.Driver, masterDB, slaveDB), nil
}

// NewSQLRepositoryFromDB 使用已建立的连接创建仓库，slave 为空时读写都走主库
func NewSQLRepositoryFromDB(driver string, master, slave *sql.DB) *SQLRepository {
	if slave == nil {
		slave = master
	}
	return &SQLRepository{
		driver:   driver,
		masterDB: master,
		slaveDB:  slave,
	}
}

func openDB(driver, dsn string, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// sqlite 同一时间只允许一个写者
		db.SetMaxOpenConns(1)
		return db, nil
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// Master 主库连接，供迁移使用
func (r *SQLRepository) Master() *sql.DB {
	return r.masterDB
}

func (r *SQLRepository) Driver() string {
	return r.driver
}

// Ping 检查主库连接
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.masterDB.PingContext(ctx)
}

// rebind 将 ? 占位符转换为当前方言的占位符
func (r *SQLRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

// execQuerier *sql.DB 与 *sql.Tx 共有的方法
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert 执行插入并返回自增ID；postgres 没有 LastInsertId，改用 RETURNING
func (r *SQLRepository) insert(ctx context.Context, db execQuerier, query string, args ...any) (int64, error) {
	if r.driver == DriverPostgres {
		var id int64
		err := db.QueryRowContext(ctx, r.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// normalizeTime 统一以UTC秒精度存储时间
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// CreateQuestion 创建问题
func (r *SQLRepository) CreateQuestion(ctx context.Context, text string, publishedAt time.Time) (int64, error) {
	const op = "repository.SQLRepository.CreateQuestion"

	id, err := r.insert(ctx, r.masterDB, "INSERT INTO questions (question_text, pub_date) VALUES (?, ?)",
		text, normalizeTime(publishedAt))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// CreateQuestionWithChoices 在同一事务中创建问题及其选项，任一插入失败都不留下数据
func (r *SQLRepository) CreateQuestionWithChoices(ctx context.Context, text string, publishedAt time.Time, choices []string) (int64, error) {
	const op = "repository.SQLRepository.CreateQuestionWithChoices"

	tx, err := r.masterDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: 开始事务失败: %w", op, err)
	}
	defer tx.Rollback()

	id, err := r.insert(ctx, tx, "INSERT INTO questions (question_text, pub_date) VALUES (?, ?)",
		text, normalizeTime(publishedAt))
	if err != nil {
		return 0, fmt.Errorf("%s: 创建问题失败: %w", op, err)
	}

	for _, choice := range choices {
		if _, err := r.insert(ctx, tx, "INSERT INTO choices (question_id, choice_text, votes) VALUES (?, ?, 0)", id, choice); err != nil {
			return 0, fmt.Errorf("%s: 创建选项失败: %w", op, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: 提交事务失败: %w", op, err)
	}
	return id, nil
}

// GetQuestion 按ID获取问题（不做可见性判断）
func (r *SQLRepository) GetQuestion(ctx context.Context, id int64) (model.Question, error) {
	const op = "repository.SQLRepository.GetQuestion"

	query := r.rebind("SELECT id, question_text, pub_date FROM questions WHERE id = ?")

	var q model.Question
	err := r.slaveDB.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Text, &q.PublishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Question{}, fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
		}
		return model.Question{}, fmt.Errorf("%s: %w", op, err)
	}
	q.PublishedAt = q.PublishedAt.UTC()

	return q, nil
}

// ListPublishedQuestions 获取 now 之前发布的问题，按发布时间倒序；limit <= 0 表示不限制
func (r *SQLRepository) ListPublishedQuestions(ctx context.Context, now time.Time, limit int) ([]model.Question, error) {
	const op = "repository.SQLRepository.ListPublishedQuestions"

	query := "SELECT id, question_text, pub_date FROM questions WHERE pub_date <= ? ORDER BY pub_date DESC, id DESC"
	args := []any{normalizeTime(now)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	questions, err := r.queryQuestions(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return questions, nil
}

// ListQuestions 获取全部问题（包含未发布的），管理端使用
func (r *SQLRepository) ListQuestions(ctx context.Context) ([]model.Question, error) {
	const op = "repository.SQLRepository.ListQuestions"

	questions, err := r.queryQuestions(ctx, "SELECT id, question_text, pub_date FROM questions ORDER BY pub_date DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return questions, nil
}

func (r *SQLRepository) queryQuestions(ctx context.Context, query string, args ...any) ([]model.Question, error) {
	rows, err := r.slaveDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0)
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		q.PublishedAt = q.PublishedAt.UTC()
		questions = append(questions, q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return questions, nil
}

// DeleteQuestion 删除问题及其全部选项
func (r *SQLRepository) DeleteQuestion(ctx context.Context, id int64) error {
	const op = "repository.SQLRepository.DeleteQuestion"

	tx, err := r.masterDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: 开始事务失败: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.rebind("DELETE FROM choices WHERE question_id = ?"), id); err != nil {
		return fmt.Errorf("%s: 删除选项失败: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, r.rebind("DELETE FROM questions WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("%s: 删除问题失败: %w", op, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: 提交事务失败: %w", op, err)
	}
	return nil
}

// CreateChoice 为问题新增选项，票数从0开始
func (r *SQLRepository) CreateChoice(ctx context.Context, questionID int64, text string) (int64, error) {
	const op = "repository.SQLRepository.CreateChoice"

	var exists int
	err := r.masterDB.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM questions WHERE id = ?"), questionID).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if exists == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrQuestionNotFound)
	}

	id, err := r.insert(ctx, r.masterDB, "INSERT INTO choices (question_id, choice_text, votes) VALUES (?, ?, 0)", questionID, text)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListChoices 获取问题下的全部选项，可能为空；读从库
func (r *SQLRepository) ListChoices(ctx context.Context, questionID int64) ([]model.Choice, error) {
	const op = "repository.SQLRepository.ListChoices"

	choices, err := r.queryChoices(ctx, r.slaveDB, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return choices, nil
}

// ListCurrentChoices 同 ListChoices，但读主库，票数包含刚提交的投票
func (r *SQLRepository) ListCurrentChoices(ctx context.Context, questionID int64) ([]model.Choice, error) {
	const op = "repository.SQLRepository.ListCurrentChoices"

	choices, err := r.queryChoices(ctx, r.masterDB, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return choices, nil
}

func (r *SQLRepository) queryChoices(ctx context.Context, db *sql.DB, questionID int64) ([]model.Choice, error) {
	query := r.rebind("SELECT id, question_id, choice_text, votes FROM choices WHERE question_id = ? ORDER BY id")
	rows, err := db.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	choices := make([]model.Choice, 0)
	for rows.Next() {
		var c model.Choice
		if err := rows.Scan(&c.ID, &c.QuestionID, &c.Text, &c.Votes); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		choices = append(choices, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return choices, nil
}

// GetChoice 在问题的选项中查找选项，读主库
func (r *SQLRepository) GetChoice(ctx context.Context, questionID, choiceID int64) (model.Choice, error) {
	const op = "repository.SQLRepository.GetChoice"

	query := r.rebind("SELECT id, question_id, choice_text, votes FROM choices WHERE id = ? AND question_id = ?")

	var c model.Choice
	err := r.masterDB.QueryRowContext(ctx, query, choiceID, questionID).Scan(&c.ID, &c.QuestionID, &c.Text, &c.Votes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Choice{}, fmt.Errorf("%s: %w", op, ErrChoiceNotFound)
		}
		return model.Choice{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// IncrementChoiceVotes 在数据库层原子地将票数加1
func (r *SQLRepository) IncrementChoiceVotes(ctx context.Context, questionID, choiceID int64) error {
	const op = "repository.SQLRepository.IncrementChoiceVotes"

	res, err := r.masterDB.ExecContext(ctx,
		r.rebind("UPDATE choices SET votes = votes + 1 WHERE id = ? AND question_id = ?"),
		choiceID, questionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: 获取更新结果失败: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrChoiceNotFound)
	}
	return nil
}

// SaveVoteLog 记录投票日志，同一事件只记录一次；返回是否新写入
func (r *SQLRepository) SaveVoteLog(ctx context.Context, entry *model.VoteLog) (bool, error) {
	const op = "repository.SQLRepository.SaveVoteLog"

	exists, err := r.voteLogExists(ctx, entry.EventID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return false, nil
	}

	id, err := r.insert(ctx, r.masterDB, "INSERT INTO vote_logs (event_id, question_id, choice_id, voted_at) VALUES (?, ?, ?, ?)",
		entry.EventID, entry.QuestionID, entry.ChoiceID, normalizeTime(entry.VotedAt))
	if err != nil {
		// 并发写入同一事件时由唯一约束拦下，视为重复
		if exists, checkErr := r.voteLogExists(ctx, entry.EventID); checkErr == nil && exists {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	entry.ID = id
	return true, nil
}

func (r *SQLRepository) voteLogExists(ctx context.Context, eventID string) (bool, error) {
	var count int
	err := r.masterDB.QueryRowContext(ctx, r.rebind("SELECT COUNT(*) FROM vote_logs WHERE event_id = ?"), eventID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListVoteLogs 获取问题的投票日志，按时间倒序
func (r *SQLRepository) ListVoteLogs(ctx context.Context, questionID int64) ([]model.VoteLog, error) {
	const op = "repository.SQLRepository.ListVoteLogs"

	query := r.rebind("SELECT id, event_id, question_id, choice_id, voted_at FROM vote_logs WHERE question_id = ? ORDER BY voted_at DESC, id DESC")
	rows, err := r.slaveDB.QueryContext(ctx, query, questionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	logs := make([]model.VoteLog, 0)
	for rows.Next() {
		var l model.VoteLog
		if err := rows.Scan(&l.ID, &l.EventID, &l.QuestionID, &l.ChoiceID, &l.VotedAt); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		l.VotedAt = l.VotedAt.UTC()
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows error: %w", op, err)
	}
	return logs, nil
}

// Close 关闭数据库连接
func (r *SQLRepository) Close() {
	if r.masterDB != nil {
		r.masterDB.Close()
	}
	if r.slaveDB != nil && r.slaveDB != r.masterDB {
		r.slaveDB.Close()
	}
}
