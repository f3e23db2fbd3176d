package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
)

// AccessTokenCookie 결제창 리다이렉트 시 사용하는 토큰 쿠키 이름
const AccessTokenCookie = "access_token"

type contextKey struct{}

var memberContextKey = contextKey{}

var (
	ErrMissingToken = errors.New("missing access token")
	ErrInvalidToken = errors.New("invalid access token")
)

// Authenticator HS256 JWT 기반 회원 식별
type Authenticator struct {
	secret []byte
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthenticator 인증기 생성
func NewAuthenticator(secret string, logger *zap.Logger) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		logger: logger,
		now:    time.Now,
	}
}

// ParseMember 토큰 검증 후 회원 추출
func (a *Authenticator) ParseMember(tokenString string) (domain.Member, error) {
	if tokenString == "" {
		return domain.Member{}, ErrMissingToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return domain.Member{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	memberID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || memberID <= 0 {
		return domain.Member{}, fmt.Errorf("%w: subject is not a member id", ErrInvalidToken)
	}
	return domain.Member{ID: memberID}, nil
}

// Middleware 요청에서 회원을 식별하여 컨텍스트에 저장
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member, err := a.ParseMember(tokenFromRequest(r))
		if err != nil {
			a.logger.Info("rejected unauthenticated request",
				zap.String("path", r.URL.Path),
				zap.Error(err))
			respondUnauthenticated(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithMember(r.Context(), member)))
	})
}

// WithMember 컨텍스트에 회원 저장
func WithMember(ctx context.Context, member domain.Member) context.Context {
	return context.WithValue(ctx, memberContextKey, member)
}

// MemberFromContext 컨텍스트에서 회원 조회
func MemberFromContext(ctx context.Context) (domain.Member, bool) {
	member, ok := ctx.Value(memberContextKey).(domain.Member)
	return member, ok
}

// tokenFromRequest Authorization 헤더 우선, 없으면 쿠키
func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func respondUnauthenticated(w http.ResponseWriter, err error) {
	message := "authentication required"
	if errors.Is(err, ErrInvalidToken) {
		message = "invalid access token"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
		"code":  string(domainerrors.ErrCodeUnauthenticated),
	})
}
