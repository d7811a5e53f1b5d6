package tokenpkg

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewJWTMakerKeySize(t *testing.T) {
	t.Parallel()

	if _, err := NewJWTMaker(strings.Repeat("x", minSecretKeySize)); err != nil {
		t.Errorf("NewJWTMaker with a %d byte key returned error: %v", minSecretKeySize, err)
	}

	got, err := NewJWTMaker(strings.Repeat("x", minSecretKeySize-1))
	if err == nil || !strings.Contains(err.Error(), "invalid key size") {
		t.Errorf("NewJWTMaker with a short key returned error %v, want invalid key size", err)
	}

	if got != nil {
		t.Errorf("JWTMaker = %+v, want nil", got)
	}
}

func TestJWTMakerCarriesRole(t *testing.T) {
	t.Parallel()

	maker, err := NewJWTMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("NewJWTMaker returned error: %v", err)
	}

	for _, role := range []string{RoleCustomer, RoleAdmin} {
		username := randompkg.Owner()
		duration := time.Minute

		token, created, err := maker.CreateToken(username, role, duration)
		if err != nil {
			t.Fatalf("maker.CreateToken(%v, %v, %v) returned error: %v", username, role, duration, err)
		}

		verified, err := maker.VerifyToken(token)
		if err != nil {
			t.Fatalf("maker.VerifyToken(%v) returned error: %v", token, err)
		}

		if verified.Role != role {
			t.Errorf("verified.Role = %q, want %q", verified.Role, role)
		}

		want := &Payload{
			ID:        created.ID,
			Username:  username,
			Role:      role,
			IssuedAt:  time.Now(),
			ExpiredAt: time.Now().Add(duration),
		}

		if diff := cmp.Diff(want, verified, cmpopts.EquateApproxTime(time.Minute)); diff != "" {
			t.Errorf("maker.VerifyToken(%v) returned unexpected diff: %v", token, diff)
		}
	}
}

func TestJWTMakerRejects(t *testing.T) {
	t.Parallel()

	secretKey := randompkg.String(32)

	maker, err := NewJWTMaker(secretKey)
	if err != nil {
		t.Fatalf("NewJWTMaker returned error: %v", err)
	}

	testCases := []struct {
		name    string
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "Expired",
			token: func(t *testing.T) string {
				token, _, err := maker.CreateToken(randompkg.Owner(), RoleCustomer, -time.Minute)
				if err != nil {
					t.Fatalf("maker.CreateToken returned error: %v", err)
				}

				return token
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "AlgNone",
			token: func(t *testing.T) string {
				payload, err := NewPayload(randompkg.Owner(), RoleAdmin, time.Minute)
				if err != nil {
					t.Fatalf("NewPayload returned error: %v", err)
				}

				token, err := jwt.NewWithClaims(jwt.SigningMethodNone, payload).SignedString(jwt.UnsafeAllowNoneSignatureType)
				if err != nil {
					t.Fatalf("SignedString returned error: %v", err)
				}

				return token
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "RoleEscalation",
			token: func(t *testing.T) string {
				other, err := NewJWTMaker(randompkg.String(32))
				if err != nil {
					t.Fatalf("NewJWTMaker returned error: %v", err)
				}

				token, _, err := other.CreateToken(randompkg.Owner(), RoleAdmin, time.Minute)
				if err != nil {
					t.Fatalf("other.CreateToken returned error: %v", err)
				}

				return token
			},
			wantErr: ErrInvalidToken,
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			payload, err := maker.VerifyToken(tc.token(t))
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("maker.VerifyToken returned error %v, want %v", err, tc.wantErr)
			}

			if payload != nil {
				t.Errorf("maker.VerifyToken returned payload %+v, want nil", payload)
			}
		})
	}
}
