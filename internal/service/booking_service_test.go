package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shoecare/internal/auth"
	"shoecare/internal/database"
	"shoecare/internal/events"
	"shoecare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) FindBookings(ctx context.Context, f models.BookingFilter) ([]*models.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

func (m *mockStore) FindBooking(ctx context.Context, f models.BookingFilter) (*models.Booking, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *mockStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) UpdateBooking(ctx context.Context, b *models.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) DeleteBooking(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type mockLimiter struct {
	mock.Mock
}

func (m *mockLimiter) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

type recordingBus struct {
	mu     sync.Mutex
	events []string
	last   events.BookingEventPayload
}

func (b *recordingBus) PublishJSON(eventType string, payload interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
	b.last = payload.(events.BookingEventPayload)
	return nil
}

var (
	owner     = &auth.Principal{UserID: 1, Email: "owner@example.com", Kind: auth.KindOwner}
	stranger  = &auth.Principal{UserID: 2, Email: "other@example.com", Kind: auth.KindOwner}
	admin     = &auth.Principal{UserID: 9, Email: "admin@example.com", Kind: auth.KindAdmin}
	simulated = &auth.Principal{UserID: 2, Email: "other@example.com", Kind: auth.KindSimulatedAdmin}
)

func str(s string) *string        { return &s }
func boolean(b bool) *bool        { return &b }
func when(t time.Time) *time.Time { return &t }
func monday() time.Time           { return time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC) }

func validInput() BookingInput {
	return BookingInput{
		CustomerName:  str("Ann Smith"),
		CustomerEmail: str("ann@example.com"),
		ShoeType:      str("Sneakers"),
		ServiceType:   str("Deep clean"),
		ScheduledDate: when(monday()),
	}
}

func storedBooking() *models.Booking {
	return &models.Booking{
		ID:                 10,
		CustomerName:       "Ann Smith",
		CustomerEmail:      "ann@example.com",
		ShoeType:           "Sneakers",
		ServiceType:        "Deep clean",
		Status:             models.StatusInProgress,
		ScheduledDate:      monday(),
		Notes:              str("old"),
		CollectionRequired: true,
		CollectionAddress:  str("1 High St"),
		CollectionCity:     str("London"),
		CollectionPostcode: str("N1 1AA"),
		UserID:             owner.UserID,
	}
}

func newTestService(store *mockStore) (*BookingService, *recordingBus) {
	bus := &recordingBus{}
	return NewBookingService(store, bus, nil, 0, nil), bus
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Unauthenticated", func(t *testing.T) {
		svc, _ := newTestService(new(mockStore))
		_, err := svc.Create(ctx, nil, validInput())
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("MissingRequired", func(t *testing.T) {
		svc, _ := newTestService(new(mockStore))
		cases := map[string]func(*BookingInput){
			"name":    func(in *BookingInput) { in.CustomerName = nil },
			"email":   func(in *BookingInput) { in.CustomerEmail = str("   ") },
			"shoe":    func(in *BookingInput) { in.ShoeType = str("") },
			"service": func(in *BookingInput) { in.ServiceType = nil },
			"date":    func(in *BookingInput) { in.ScheduledDate = nil },
		}
		for name, mutate := range cases {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(ctx, owner, in)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr, name)
			assert.Equal(t, MsgMissingRequired, vErr.Message, name)
		}
	})

	t.Run("CollectionCityEmpty", func(t *testing.T) {
		store := new(mockStore)
		svc, _ := newTestService(store)
		in := validInput()
		in.CollectionRequired = boolean(true)
		in.CollectionAddress = str("1 High St")
		in.CollectionCity = str("")
		in.CollectionPostcode = str("N1 1AA")

		_, err := svc.Create(ctx, owner, in)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, MsgMissingCollection, vErr.Message)
		store.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("NoCollectionNullsAddress", func(t *testing.T) {
		store := new(mockStore)
		store.On("CreateBooking", ctx, mock.AnythingOfType("*models.Booking")).
			Run(func(args mock.Arguments) { args.Get(1).(*models.Booking).ID = 5 }).
			Return(nil).Once()
		svc, bus := newTestService(store)

		in := validInput()
		in.CollectionRequired = boolean(false)
		in.CollectionAddress = str("ignored street")
		in.CollectionCity = str("ignored city")
		in.CustomerPhone = str("  ")
		in.Notes = str(" leave at door ")

		b, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
		assert.Equal(t, int64(5), b.ID)
		assert.False(t, b.CollectionRequired)
		assert.Nil(t, b.CollectionAddress)
		assert.Nil(t, b.CollectionCity)
		assert.Nil(t, b.CollectionPostcode)
		assert.Nil(t, b.CustomerPhone)
		assert.Equal(t, "leave at door", *b.Notes)
		assert.Equal(t, owner.UserID, b.UserID)
		assert.Equal(t, []string{events.EventBookingCreated}, bus.events)
		store.AssertExpectations(t)
	})

	t.Run("StatusForcedToPending", func(t *testing.T) {
		store := new(mockStore)
		store.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		svc, _ := newTestService(store)

		b, err := svc.Create(ctx, admin, validInput())
		require.NoError(t, err)
		assert.Equal(t, models.StatusPendingConfirmation, b.Status)
		assert.Equal(t, admin.UserID, b.UserID)
	})

	t.Run("WithCollection", func(t *testing.T) {
		store := new(mockStore)
		store.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		svc, _ := newTestService(store)

		in := validInput()
		in.CollectionRequired = boolean(true)
		in.CollectionAddress = str("1 High St")
		in.CollectionCity = str("London")
		in.CollectionPostcode = str("N1 1AA")

		b, err := svc.Create(ctx, owner, in)
		require.NoError(t, err)
		assert.True(t, b.HasCompleteCollectionAddress())
	})

	t.Run("StoreFailure", func(t *testing.T) {
		store := new(mockStore)
		store.On("CreateBooking", ctx, mock.Anything).Return(errors.New("disk full")).Once()
		svc, bus := newTestService(store)

		_, err := svc.Create(ctx, owner, validInput())
		assert.Error(t, err)
		var vErr *ValidationError
		assert.False(t, errors.As(err, &vErr))
		assert.Empty(t, bus.events)
	})

	t.Run("RateLimited", func(t *testing.T) {
		store := new(mockStore)
		limiter := new(mockLimiter)
		limiter.On("CheckRateLimit", ctx, owner.UserID, 3, time.Hour).Return(false, nil).Once()
		svc := NewBookingService(store, nil, limiter, 3, nil)

		_, err := svc.Create(ctx, owner, validInput())
		assert.ErrorIs(t, err, ErrRateLimited)
		store.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
	})

	t.Run("RateLimiterDownFailsOpen", func(t *testing.T) {
		store := new(mockStore)
		store.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		limiter := new(mockLimiter)
		limiter.On("CheckRateLimit", ctx, owner.UserID, 3, time.Hour).Return(false, errors.New("redis down")).Once()
		svc := NewBookingService(store, nil, limiter, 3, nil)

		_, err := svc.Create(ctx, owner, validInput())
		assert.NoError(t, err)
	})
}

func TestUpdate_OwnerRestrictedFieldsIgnored(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, models.BookingFilter{ID: 10, UserID: owner.UserID}).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.Anything).Return(nil).Once()
	svc, bus := newTestService(store)

	upd := BookingUpdate{
		BookingInput: BookingInput{
			CustomerName:       str("Mallory"),
			ShoeType:           str("Boots"),
			ScheduledDate:      when(monday().AddDate(0, 1, 0)),
			Notes:              str("new note"),
			CollectionRequired: boolean(false),
		},
		Status: str(models.StatusCancelled),
	}

	b, err := svc.Update(ctx, owner, 10, upd)
	require.NoError(t, err)

	assert.Equal(t, "Ann Smith", b.CustomerName)
	assert.Equal(t, "Sneakers", b.ShoeType)
	assert.Equal(t, monday(), b.ScheduledDate)
	assert.True(t, b.CollectionRequired)
	assert.Equal(t, "London", *b.CollectionCity)

	assert.Equal(t, models.StatusCancelled, b.Status)
	assert.Equal(t, "new note", *b.Notes)

	assert.Equal(t, []string{events.EventBookingUpdated}, bus.events)
	assert.Equal(t, models.StatusInProgress, bus.last.PreviousStatus)
	assert.True(t, bus.last.StatusChanged())
	store.AssertExpectations(t)
}

func TestUpdate_OwnerStatusOmittedIsRetained(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.Anything).Return(nil).Once()
	svc, _ := newTestService(store)

	b, err := svc.Update(ctx, owner, 10, BookingUpdate{Status: str("")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, b.Status)
	assert.Equal(t, "old", *b.Notes)
}

func TestUpdate_NonOwnerGetsNotFound(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, models.BookingFilter{ID: 10, UserID: stranger.UserID}).Return(nil, nil).Once()
	store.On("FindBooking", ctx, models.BookingFilter{ID: 404, UserID: stranger.UserID}).Return(nil, nil).Once()
	svc, bus := newTestService(store)

	_, errForeign := svc.Update(ctx, stranger, 10, BookingUpdate{Status: str(models.StatusCancelled)})
	_, errMissing := svc.Update(ctx, stranger, 404, BookingUpdate{Status: str(models.StatusCancelled)})

	assert.ErrorIs(t, errForeign, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errMissing.Error(), errForeign.Error())
	assert.Empty(t, bus.events)
	store.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
}

func TestUpdate_AdminTransitionsFreely(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, models.BookingFilter{ID: 10}).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.Anything).Return(nil).Once()
	svc, _ := newTestService(store)

	upd := BookingUpdate{Status: str(models.StatusCancelled)}
	upd.CollectionRequired = boolean(true)
	upd.CollectionAddress = str("1 High St")
	upd.CollectionCity = str("London")
	upd.CollectionPostcode = str("N1 1AA")

	b, err := svc.Update(ctx, admin, 10, upd)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, b.Status)
}

func TestUpdate_AdminAppliesAllFields(t *testing.T) {
	ctx := context.Background()
	newDate := monday().AddDate(0, 0, 3)
	store := new(mockStore)
	store.On("FindBooking", ctx, models.BookingFilter{ID: 10}).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.MatchedBy(func(b *models.Booking) bool {
		return b.ID == 10 && b.CustomerName == "Bob" && b.CollectionAddress == nil
	})).Return(nil).Once()
	svc, _ := newTestService(store)

	upd := BookingUpdate{
		BookingInput: BookingInput{
			CustomerName:  str("Bob"),
			CustomerEmail: str("bob@example.com"),
			CustomerPhone: str("+44 1234"),
			ShoeType:      str("Boots"),
			ServiceType:   str("Repair"),
			ScheduledDate: when(newDate),
			Notes:         str(""),
			// CollectionRequired omitted: defaults to false for admins.
			CollectionAddress: str("should be dropped"),
		},
		Status: str(models.StatusConfirmed),
	}

	b, err := svc.Update(ctx, simulated, 10, upd)
	require.NoError(t, err)
	assert.Equal(t, "Bob", b.CustomerName)
	assert.Equal(t, "bob@example.com", b.CustomerEmail)
	assert.Equal(t, "+44 1234", *b.CustomerPhone)
	assert.Equal(t, "Boots", b.ShoeType)
	assert.Equal(t, "Repair", b.ServiceType)
	assert.Equal(t, newDate, b.ScheduledDate)
	assert.Nil(t, b.Notes)
	assert.Equal(t, models.StatusConfirmed, b.Status)
	assert.False(t, b.CollectionRequired)
	assert.Nil(t, b.CollectionAddress)
	assert.Nil(t, b.CollectionCity)
	assert.Nil(t, b.CollectionPostcode)
	assert.Equal(t, owner.UserID, b.UserID)
	store.AssertExpectations(t)
}

func TestUpdate_AdminBlankRequiredField(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
	svc, _ := newTestService(store)

	_, err := svc.Update(ctx, admin, 10, BookingUpdate{BookingInput: BookingInput{CustomerName: str("  ")}})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, MsgMissingRequired, vErr.Message)
	store.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
}

func TestUpdate_CollectionValidatedForEveryRole(t *testing.T) {
	ctx := context.Background()
	for _, p := range []*auth.Principal{owner, admin} {
		store := new(mockStore)
		store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
		svc, _ := newTestService(store)

		upd := BookingUpdate{}
		upd.CollectionRequired = boolean(true)
		upd.CollectionAddress = str("1 High St")

		_, err := svc.Update(ctx, p, 10, upd)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, p.Kind.String())
		assert.Equal(t, MsgMissingCollection, vErr.Message)
	}
}

func TestUpdate_RowVanishedBeforeCommit(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.Anything).Return(database.ErrNotFound).Once()
	svc, _ := newTestService(store)

	_, err := svc.Update(ctx, owner, 10, BookingUpdate{BookingInput: BookingInput{Notes: str("x")}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdate_UnknownStatusRejected(t *testing.T) {
	ctx := context.Background()

	for _, p := range []*auth.Principal{owner, admin, simulated} {
		store := new(mockStore)
		store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
		svc, bus := newTestService(store)

		_, err := svc.Update(ctx, p, 10, BookingUpdate{Status: str("banana")})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr, p.Kind.String())
		assert.Equal(t, MsgInvalidStatus, vErr.Message)
		assert.Empty(t, bus.events)
		store.AssertNotCalled(t, "UpdateBooking", mock.Anything, mock.Anything)
	}
}

func TestUpdate_StatusIsTrimmed(t *testing.T) {
	ctx := context.Background()
	store := new(mockStore)
	store.On("FindBooking", ctx, mock.Anything).Return(storedBooking(), nil).Once()
	store.On("UpdateBooking", ctx, mock.Anything).Return(nil).Once()
	svc, _ := newTestService(store)

	b, err := svc.Update(ctx, owner, 10, BookingUpdate{Status: str(" " + models.StatusConfirmed + " ")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, b.Status)
}

func TestUpdate_Unauthenticated(t *testing.T) {
	svc, _ := newTestService(new(mockStore))
	_, err := svc.Update(context.Background(), nil, 10, BookingUpdate{})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("Owner", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBooking", ctx, models.BookingFilter{ID: 10, UserID: owner.UserID}).Return(storedBooking(), nil).Once()
		store.On("DeleteBooking", ctx, int64(10)).Return(nil).Once()
		svc, bus := newTestService(store)

		require.NoError(t, svc.Delete(ctx, owner, 10))
		assert.Equal(t, []string{events.EventBookingDeleted}, bus.events)
		store.AssertExpectations(t)
	})

	t.Run("AdminIsStillOwnerScoped", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBooking", ctx, models.BookingFilter{ID: 10, UserID: admin.UserID}).Return(nil, nil).Once()
		svc, _ := newTestService(store)

		assert.ErrorIs(t, svc.Delete(ctx, admin, 10), ErrNotFound)
		store.AssertNotCalled(t, "DeleteBooking", mock.Anything, mock.Anything)
	})

	t.Run("StoreFailure", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBooking", ctx, mock.Anything).Return(nil, errors.New("locked")).Once()
		svc, _ := newTestService(store)

		err := svc.Delete(ctx, owner, 10)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestReads(t *testing.T) {
	ctx := context.Background()
	list := []*models.Booking{storedBooking()}

	t.Run("ListOwn", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBookings", ctx, models.BookingFilter{UserID: owner.UserID}).Return(list, nil).Once()
		svc, _ := newTestService(store)

		got, err := svc.ListOwn(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, list, got)
	})

	t.Run("ListAllRequiresAdmin", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBookings", ctx, models.BookingFilter{}).Return(list, nil).Once()
		svc, _ := newTestService(store)

		_, err := svc.ListAll(ctx, owner)
		assert.ErrorIs(t, err, auth.ErrUnauthorized)

		got, err := svc.ListAll(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("GetScoped", func(t *testing.T) {
		store := new(mockStore)
		store.On("FindBooking", ctx, models.BookingFilter{ID: 10, UserID: stranger.UserID}).Return(nil, nil).Once()
		store.On("FindBooking", ctx, models.BookingFilter{ID: 10}).Return(storedBooking(), nil).Once()
		svc, _ := newTestService(store)

		_, err := svc.Get(ctx, stranger, 10)
		assert.ErrorIs(t, err, ErrNotFound)

		b, err := svc.Get(ctx, admin, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), b.ID)
	})

	t.Run("InvalidID", func(t *testing.T) {
		svc, _ := newTestService(new(mockStore))
		_, err := svc.Get(ctx, admin, 0)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPermittedFields(t *testing.T) {
	assert.Equal(t, ownerFields, permittedFields(owner))
	assert.Equal(t, adminFields, permittedFields(admin))
	assert.Equal(t, adminFields, permittedFields(simulated))

	upd := BookingUpdate{BookingInput: BookingInput{CustomerName: str("x"), Notes: str("n")}, Status: str("s")}
	projected := ownerFields.project(upd)
	assert.Nil(t, projected.CustomerName)
	assert.Equal(t, "n", *projected.Notes)
	assert.Equal(t, "s", *projected.Status)
}
