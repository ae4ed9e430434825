package server

import (
	"context"
	"testing"
	"time"

	"github.com/MMTunning/MMTunning/internal/common/auth"
	"github.com/MMTunning/MMTunning/internal/common/config"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestUnaryJWTAuthInterceptorAndRBAC(t *testing.T) {
	authCfg := config.AuthConfig{
		Enabled:   true,
		JWTSecret: "test-secret",
		Issuer:    "mmtunning",
		Audience:  "mmtunning",
		RBAC: map[string][]string{
			"/workshop.Workshop/GenerateInvoice": {"attendant"},
		},
	}

	tokenStr, _, err := auth.GenerateAccessToken(authCfg, "u-1", []string{"attendant"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	authIC := UnaryJWTAuthInterceptor(authCfg, nil)
	rbacIC := UnaryRBACInterceptor(authCfg)
	chain := UnaryChain(authIC, rbacIC)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tokenStr))
	info := &grpc.UnaryServerInfo{FullMethod: "/workshop.Workshop/GenerateInvoice"}

	_, err = chain(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		ai, ok := AuthFromContext(ctx)
		if !ok {
			t.Fatalf("missing auth info in ctx")
		}
		if ai.Subject != "u-1" {
			t.Fatalf("subject mismatch: %s", ai.Subject)
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("expected allow, got err=%v", err)
	}

	// 换一个只有 client 角色的 token，应被 RBAC 拒绝
	tokenStr2, _, err := auth.GenerateAccessToken(authCfg, "u-2", []string{"client"}, time.Hour)
	if err != nil {
		t.Fatalf("sign token2: %v", err)
	}
	ctx2 := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tokenStr2))

	_, err = chain(ctx2, nil, info, func(ctx context.Context, req any) (any, error) {
		return "ok", nil
	})
	if err == nil {
		t.Fatalf("expected permission denied, got nil")
	}
}

func TestBearerToken(t *testing.T) {
	if got := BearerToken("Bearer abc"); got != "abc" {
		t.Fatalf("unexpected token: %q", got)
	}
	if got := BearerToken("  bearer   xyz  "); got != "xyz" {
		t.Fatalf("unexpected token: %q", got)
	}
	if got := BearerToken(""); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
