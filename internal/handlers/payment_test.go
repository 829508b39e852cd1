package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/apperrors"
	"github.com/sbilibin2017/gw-fiat-ledger/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentHandler(t *testing.T) {
	tests := []struct {
		name               string
		user               string
		body               string
		setupMocks         func(m *MockPayer)
		expectedStatusCode int
		expectedCode       string
	}{
		{
			name: "successful payment",
			user: alice,
			body: `{"destination":"GMERCHANT","amount":"25","currency":"CAD","memo":"coffee"}`,
			setupMocks: func(m *MockPayer) {
				m.EXPECT().
					Pay(gomock.Any(), alice, "GMERCHANT", gomock.Any(), "CAD", "coffee").
					Return(completedTx(models.TypePayment, "25", "75"), nil)
			},
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "unauthorized",
			user:               "",
			body:               `{}`,
			setupMocks:         func(m *MockPayer) {},
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "invalid request body",
			user:               alice,
			body:               `nope`,
			setupMocks:         func(m *MockPayer) {},
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name: "destination does not exist",
			user: alice,
			body: `{"destination":"GNOBODY","amount":"25"}`,
			setupMocks: func(m *MockPayer) {
				m.EXPECT().
					Pay(gomock.Any(), alice, "GNOBODY", gomock.Any(), "", "").
					Return(nil, &apperrors.FlowError{
						TransactionID: "tx-3",
						Err:           &apperrors.SettlementError{Code: "op_no_destination"},
					})
			},
			expectedStatusCode: http.StatusBadGateway,
			expectedCode:       "op_no_destination",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockSvc := NewMockPayer(ctrl)
			tt.setupMocks(mockSvc)

			handler := NewPaymentHandler(mockSvc, userGetter(tt.user))

			req := httptest.NewRequest(http.MethodPost, "/wallet/payment", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatusCode, rr.Code)

			if tt.expectedCode != "" {
				var resp ErrorResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, tt.expectedCode, resp.Code)
				assert.Equal(t, "tx-3", resp.TransactionID)
			}
		})
	}
}
