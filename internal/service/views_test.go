package service

// Тесты регистрации просмотров (internal/service/views.go).

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/site-content-service/internal/storage"
)

// Просмотр доходит до хранилища ровно одним атомарным инкрементом.
func TestService_RegisterView_OK(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		IncrementViews(gomock.Any(), "X123").
		Return(nil).
		Times(1)

	require.NoError(t, s.RegisterView(context.Background(), " X123 "))
}

// Пустой id отбрасывается до похода в хранилище.
func TestService_RegisterView_EmptyID(t *testing.T) {
	s, _, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	err := s.RegisterView(context.Background(), "   ")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

// Несуществующий материал -> ErrNotFound.
func TestService_RegisterView_NotFound(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		IncrementViews(gomock.Any(), "Y999").
		Return(storage.ErrNotFound)

	err := s.RegisterView(context.Background(), "Y999")
	require.ErrorIs(t, err, ErrNotFound)
}

// Недоступность хранилища -> ErrUnavailable; ретраев сервис не делает.
func TestService_RegisterView_StoreUnavailable(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		IncrementViews(gomock.Any(), "X123").
		Return(errors.New("connection reset")).
		Times(1)

	err := s.RegisterView(context.Background(), "X123")
	require.ErrorIs(t, err, ErrUnavailable)
}

// Повторная регистрация того же материала — ещё один инкремент:
// дедупликация в рамках показа живёт на клиентской стороне,
// сервис каждую доехавшую регистрацию применяет.
func TestService_RegisterView_EachCallIncrements(t *testing.T) {
	s, ms, ctrl := newServiceWithMocks(t)
	defer ctrl.Finish()

	ms.EXPECT().
		IncrementViews(gomock.Any(), "X123").
		Return(nil).
		Times(3)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RegisterView(context.Background(), "X123"))
	}
}
