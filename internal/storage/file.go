package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ram4lh0/Sleep-App/internal"
)

const defaultSaveDelay = 500 * time.Millisecond

// FileStorage keeps everything in memory and persists each collection to
// its own JSON file. Writes are debounced by background workers.
type FileStorage struct {
	records     map[string]*internal.SleepRecord     // id -> record
	userRecords map[string][]*internal.SleepRecord   // userID -> records, newest first
	users       map[string]*internal.User            // id -> user
	emails      map[string]string                    // lower(email) -> user id
	sessions    map[string]*internal.Session         // id -> session
	goals       map[string]map[string]*internal.Goal // userID -> type -> goal
	mu          sync.RWMutex

	recordsFile, usersFile, sessionsFile, goalsFile string

	recordsSaver, accountsSaver, goalsSaver *saver
	closeOnce                               sync.Once
	logger                                  internal.Logger
}

// saver debounces save requests for one collection. Only a collection
// changed since its last save is ever written.
type saver struct {
	dirty    atomic.Bool
	signal   chan struct{}
	shutdown chan struct{}
	done     chan struct{}
	delay    time.Duration
	save     func() error
	name     string
	logger   internal.Logger
}

func newSaver(name string, delay time.Duration, save func() error, logger internal.Logger) *saver {
	return &saver{
		signal:   make(chan struct{}, 1),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		delay:    delay,
		save:     save,
		name:     name,
		logger:   logger,
	}
}

// trigger marks the collection changed and requests a save without
// blocking.
func (sv *saver) trigger() {
	sv.dirty.Store(true)
	select {
	case sv.signal <- struct{}{}:
	default:
	}
}

func (sv *saver) run() {
	defer close(sv.done)
	timer := time.NewTimer(sv.delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-sv.signal:
			timer.Reset(sv.delay)
		case <-timer.C:
			if err := sv.flush(); err != nil {
				sv.logger.Errorf("storage: error saving %s: %v", sv.name, err)
			}
		case <-sv.shutdown:
			return
		}
	}
}

// flush saves the collection if it changed. A failed save leaves it dirty.
func (sv *saver) flush() error {
	if !sv.dirty.Swap(false) {
		return nil
	}
	if err := sv.save(); err != nil {
		sv.dirty.Store(true)
		return err
	}
	return nil
}

func (sv *saver) stop() {
	close(sv.shutdown)
	<-sv.done
}

func NewFileStorage(recordsFile, usersFile, sessionsFile, goalsFile string, logger internal.Logger) (*FileStorage, error) {
	return newFileStorage(recordsFile, usersFile, sessionsFile, goalsFile, defaultSaveDelay, logger)
}

func newFileStorage(recordsFile, usersFile, sessionsFile, goalsFile string, delay time.Duration, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		records:      make(map[string]*internal.SleepRecord),
		userRecords:  make(map[string][]*internal.SleepRecord),
		users:        make(map[string]*internal.User),
		emails:       make(map[string]string),
		sessions:     make(map[string]*internal.Session),
		goals:        make(map[string]map[string]*internal.Goal),
		recordsFile:  recordsFile,
		usersFile:    usersFile,
		sessionsFile: sessionsFile,
		goalsFile:    goalsFile,
		logger:       logger,
	}

	for _, f := range []string{recordsFile, usersFile, sessionsFile, goalsFile} {
		if err := os.MkdirAll(filepath.Dir(f), 0o755); err != nil {
			return nil, fmt.Errorf("storage: creating data dir: %w", err)
		}
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load data: %v", err)
		return nil, err
	}

	s.recordsSaver = newSaver("sleep records", delay, s.saveRecords, logger)
	s.accountsSaver = newSaver("accounts", delay, s.saveAccounts, logger)
	s.goalsSaver = newSaver("goals", delay, s.saveGoals, logger)
	go s.recordsSaver.run()
	go s.accountsSaver.run()
	go s.goalsSaver.run()

	return s, nil
}

// readJSONFile decodes a JSON array from path into out. A missing or empty
// file leaves out untouched.
func readJSONFile(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (s *FileStorage) load() error {
	var records []*internal.SleepRecord
	if err := readJSONFile(s.recordsFile, &records); err != nil {
		return err
	}
	var users []persistedUser
	if err := readJSONFile(s.usersFile, &users); err != nil {
		return err
	}
	var sessions []*internal.Session
	if err := readJSONFile(s.sessionsFile, &sessions); err != nil {
		return err
	}
	var goals []*internal.Goal
	if err := readJSONFile(s.goalsFile, &goals); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.ID] = r
		s.userRecords[r.UserID] = append(s.userRecords[r.UserID], r)
	}
	for userID := range s.userRecords {
		sortNewestFirst(s.userRecords[userID])
	}
	for _, pu := range users {
		u := pu.User
		u.PasswordHash = pu.PasswordHash
		s.users[u.ID] = &u
		s.emails[strings.ToLower(u.Email)] = u.ID
	}
	for _, sess := range sessions {
		s.sessions[sess.ID] = sess
	}
	for _, g := range goals {
		if s.goals[g.UserID] == nil {
			s.goals[g.UserID] = make(map[string]*internal.Goal)
		}
		s.goals[g.UserID][g.Type] = g
	}
	return nil
}

// newerThan orders records by CreatedAt descending, then ID descending.
func newerThan(a, b *internal.SleepRecord) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(recs []*internal.SleepRecord) {
	sort.SliceStable(recs, func(i, j int) bool { return newerThan(recs[i], recs[j]) })
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) saveRecords() error {
	s.mu.RLock()
	recs := make([]*internal.SleepRecord, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	s.mu.RUnlock()
	sortNewestFirst(recs)
	return atomicWriteFileJSON(s.recordsFile, recs)
}

// persistedUser carries the password hash, which the API representation hides.
type persistedUser struct {
	internal.User
	PasswordHash string `json:"password_hash"`
}

func (s *FileStorage) saveAccounts() error {
	s.mu.RLock()
	users := make([]persistedUser, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, persistedUser{User: *u, PasswordHash: u.PasswordHash})
	}
	sessions := make([]*internal.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	if err := atomicWriteFileJSON(s.usersFile, users); err != nil {
		return err
	}
	return atomicWriteFileJSON(s.sessionsFile, sessions)
}

func (s *FileStorage) saveGoals() error {
	s.mu.RLock()
	goals := make([]*internal.Goal, 0)
	for _, typeMap := range s.goals {
		for _, g := range typeMap {
			goals = append(goals, g)
		}
	}
	s.mu.RUnlock()
	return atomicWriteFileJSON(s.goalsFile, goals)
}

// Close stops the save workers and writes every collection synchronously.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.recordsSaver.stop()
		s.accountsSaver.stop()
		s.goalsSaver.stop()
		err = errors.Join(s.recordsSaver.flush(), s.accountsSaver.flush(), s.goalsSaver.flush())
	})
	return err
}

// --- SleepRecordRepository ---

func (s *FileStorage) InsertRecord(ctx context.Context, rec *internal.SleepRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return fmt.Errorf("storage: record %s: %w", rec.ID, internal.ErrConflict)
	}
	stored := *rec
	s.records[rec.ID] = &stored

	recs := s.userRecords[rec.UserID]
	i := sort.Search(len(recs), func(i int) bool { return newerThan(&stored, recs[i]) })
	recs = append(recs, nil)
	copy(recs[i+1:], recs[i:])
	recs[i] = &stored
	s.userRecords[rec.UserID] = recs

	s.recordsSaver.trigger()
	return nil
}

func (s *FileStorage) ListRecords(ctx context.Context, userID string) ([]internal.SleepRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ptrs := s.userRecords[userID]
	recs := make([]internal.SleepRecord, len(ptrs))
	for i, r := range ptrs {
		recs[i] = *r
	}
	return recs, nil
}

func (s *FileStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.UserID != userID {
		return fmt.Errorf("storage: record %s: %w", id, internal.ErrNotFound)
	}
	delete(s.records, id)
	recs := s.userRecords[userID]
	for i, r := range recs {
		if r.ID == id {
			s.userRecords[userID] = append(recs[:i], recs[i+1:]...)
			break
		}
	}
	s.recordsSaver.trigger()
	return nil
}

// --- AccountRepository ---

func (s *FileStorage) CreateUser(ctx context.Context, user *internal.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(user.Email)
	if _, taken := s.emails[key]; taken {
		return fmt.Errorf("storage: user %s: %w", user.Email, internal.ErrConflict)
	}
	stored := *user
	s.users[user.ID] = &stored
	s.emails[key] = user.ID
	s.accountsSaver.trigger()
	return nil
}

func (s *FileStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, fmt.Errorf("storage: user %s: %w", email, internal.ErrNotFound)
	}
	u := *s.users[id]
	return &u, nil
}

func (s *FileStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("storage: user %s: %w", id, internal.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *FileStorage) SaveSession(ctx context.Context, session *internal.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	stored.Token = ""
	s.sessions[session.ID] = &stored
	s.accountsSaver.trigger()
	return nil
}

func (s *FileStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("storage: session %s: %w", id, internal.ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

func (s *FileStorage) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("storage: session %s: %w", id, internal.ErrNotFound)
	}
	delete(s.sessions, id)
	s.accountsSaver.trigger()
	return nil
}

// --- GoalRepository ---

func (s *FileStorage) SetGoal(ctx context.Context, goal *internal.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.goals[goal.UserID] == nil {
		s.goals[goal.UserID] = make(map[string]*internal.Goal)
	}
	// Keep the newest goal per type, ordered the way GetGoal ranks them.
	if cur, ok := s.goals[goal.UserID][goal.Type]; ok && goalNewer(cur, goal) {
		return nil
	}
	stored := *goal
	s.goals[goal.UserID][goal.Type] = &stored
	s.goalsSaver.trigger()
	return nil
}

func (s *FileStorage) GetGoal(ctx context.Context, userID string) (*internal.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	typeMap, ok := s.goals[userID]
	if !ok || len(typeMap) == 0 {
		return nil, fmt.Errorf("storage: goal for %s: %w", userID, internal.ErrNotFound)
	}
	var latest *internal.Goal
	for _, g := range typeMap {
		if latest == nil || goalNewer(g, latest) {
			latest = g
		}
	}
	cp := *latest
	return &cp, nil
}

// goalNewer orders goals by CreatedAt, then ID, matching the SQL backends.
func goalNewer(a, b *internal.Goal) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// --- Compile-time assertions ---
var _ SleepRecordRepository = (*FileStorage)(nil)
var _ AccountRepository = (*FileStorage)(nil)
var _ GoalRepository = (*FileStorage)(nil)
