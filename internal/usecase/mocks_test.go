package usecase_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
)

// MockLineRepository - мок для LineRepository
type MockLineRepository struct {
	mock.Mock
}

func (m *MockLineRepository) GetAll(ctx context.Context) ([]domain.Line, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Line), args.Error(1)
}

func (m *MockLineRepository) GetByName(ctx context.Context, name string) (*domain.Line, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Line), args.Error(1)
}

func (m *MockLineRepository) GetByOperator(ctx context.Context, operatorUID string) ([]domain.Line, error) {
	args := m.Called(ctx, operatorUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Line), args.Error(1)
}

func (m *MockLineRepository) Create(ctx context.Context, in domain.LineInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockLineRepository) Update(ctx context.Context, name string, upd domain.LineUpdate) (bool, error) {
	args := m.Called(ctx, name, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockLineRepository) Delete(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockLineRepository) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockLineRepository) Count(ctx context.Context, operatorUID string) (int, error) {
	args := m.Called(ctx, operatorUID)
	return args.Int(0), args.Error(1)
}

func (m *MockLineRepository) CountStationLinks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockOperatorRepository - мок для OperatorRepository
type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) GetAll(ctx context.Context) ([]domain.Operator, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) GetByUID(ctx context.Context, uid string) (*domain.Operator, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) GetByName(ctx context.Context, name string) (*domain.Operator, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) GetByUser(ctx context.Context, userID string) ([]domain.Operator, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) Create(ctx context.Context, in domain.OperatorInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOperatorRepository) Update(ctx context.Context, uid string, upd domain.OperatorUpdate) (bool, error) {
	args := m.Called(ctx, uid, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) Delete(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) AddUser(ctx context.Context, uid, userID string) (bool, error) {
	args := m.Called(ctx, uid, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) RemoveUser(ctx context.Context, uid, userID string) (bool, error) {
	args := m.Called(ctx, uid, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) Exists(ctx context.Context, uid string) (bool, error) {
	args := m.Called(ctx, uid)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) UserBelongs(ctx context.Context, uid, userID string) (bool, error) {
	args := m.Called(ctx, uid, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockStationRepository - мок для StationRepository
type MockStationRepository struct {
	mock.Mock
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]domain.Station, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Station), args.Error(1)
}

func (m *MockStationRepository) GetByID(ctx context.Context, id int64) (*domain.Station, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Station), args.Error(1)
}

func (m *MockStationRepository) GetByName(ctx context.Context, name string) (*domain.Station, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Station), args.Error(1)
}

func (m *MockStationRepository) GetByLine(ctx context.Context, lineName string) ([]domain.LineStation, error) {
	args := m.Called(ctx, lineName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.LineStation), args.Error(1)
}

func (m *MockStationRepository) LinesAtStation(ctx context.Context, stationName string) ([]domain.StationLine, error) {
	args := m.Called(ctx, stationName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StationLine), args.Error(1)
}

func (m *MockStationRepository) Create(ctx context.Context, name string) (int64, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockStationRepository) Update(ctx context.Context, id int64, upd domain.StationUpdate) (bool, error) {
	args := m.Called(ctx, id, upd)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) AddToLine(ctx context.Context, lineName, stationName string, order int) (bool, error) {
	args := m.Called(ctx, lineName, stationName, order)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) RemoveFromLine(ctx context.Context, lineName, stationName string) (bool, error) {
	args := m.Called(ctx, lineName, stationName)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) Reorder(ctx context.Context, lineName string, stationNames []string) (bool, error) {
	args := m.Called(ctx, lineName, stationNames)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) Exists(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockStationRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStationRepository) Search(ctx context.Context, term string) ([]domain.StationRef, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StationRef), args.Error(1)
}

func (m *MockStationRepository) Statistics(ctx context.Context, name string) (*domain.StationStatistics, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StationStatistics), args.Error(1)
}

// MockRequestRepository - мок для OperatorRequestRepository
type MockRequestRepository struct {
	mock.Mock
}

func (m *MockRequestRepository) Create(ctx context.Context, in domain.OperatorRequestInput) (int64, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRequestRepository) GetAll(ctx context.Context) ([]domain.OperatorRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OperatorRequest), args.Error(1)
}

func (m *MockRequestRepository) GetPending(ctx context.Context) ([]domain.OperatorRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.OperatorRequest), args.Error(1)
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id int64) (*domain.OperatorRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperatorRequest), args.Error(1)
}

func (m *MockRequestRepository) GetByTimestamp(ctx context.Context, ts time.Time) (*domain.OperatorRequest, error) {
	args := m.Called(ctx, ts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OperatorRequest), args.Error(1)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id int64, status domain.RequestStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockRequestRepository) Delete(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) DeleteByTimestamp(ctx context.Context, ts time.Time) (bool, error) {
	args := m.Called(ctx, ts)
	return args.Bool(0), args.Error(1)
}

func (m *MockRequestRepository) Count(ctx context.Context, status domain.RequestStatus) (int, error) {
	args := m.Called(ctx, status)
	return args.Int(0), args.Error(1)
}

// MockUserRepository - мок для UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, profile domain.DiscordProfile) error {
	return m.Called(ctx, profile).Error(0)
}

// MockFeedCache - мок для CacheRepository
type MockFeedCache struct {
	mock.Mock
}

func (m *MockFeedCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockFeedCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockFeedCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockFeedCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockFeedCache) GetProfile(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscordProfile), args.Error(1)
}

func (m *MockFeedCache) SetProfile(ctx context.Context, profile *domain.DiscordProfile, ttl time.Duration) error {
	return m.Called(ctx, profile, ttl).Error(0)
}

// MockStreamRepository - мок для StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	return m.Called(ctx, stream, data).Error(0)
}

// MockDiscord - мок для DiscordRepository и DiscordAuthenticator
type MockDiscord struct {
	mock.Mock
}

func (m *MockDiscord) FetchUser(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscordProfile), args.Error(1)
}

func (m *MockDiscord) AvatarURL(userID, avatarHash, discriminator string) string {
	return m.Called(userID, avatarHash, discriminator).String(0)
}

func (m *MockDiscord) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockDiscord) Exchange(ctx context.Context, code string) (*domain.DiscordProfile, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DiscordProfile), args.Error(1)
}

// fakeTx выполняет fn сразу и считает вызовы
type fakeTx struct {
	calls int
}

func (f *fakeTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

// staticConfig - ConfigSource с неизменным конфигом
type staticConfig struct {
	cfg *config.Config
}

func (s staticConfig) Current() *config.Config {
	return s.cfg
}

const (
	adminID  = "100000000000000001"
	memberID = "200000000000000002"
	otherID  = "300000000000000003"
)

func testConfig() *config.Config {
	return &config.Config{
		Admin: config.AdminConfig{WebAdmins: []string{adminID}},
		Cache: config.CacheConfig{LinesTTL: 30 * time.Second, UserProfileTTL: time.Hour},
	}
}

func adminUser() *domain.SessionUser {
	return &domain.SessionUser{ID: adminID, Username: "admin", Admin: true}
}

func memberUser() *domain.SessionUser {
	return &domain.SessionUser{ID: memberID, Username: "member"}
}

func otherUser() *domain.SessionUser {
	return &domain.SessionUser{ID: otherID, Username: "other"}
}
