package token

import (
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)

	tokenString, err := m.GenerateToken(42, "alice", "USER")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	claims, err := m.VerifyToken(tokenString)
	if err != nil {
		t.Fatalf("验证 token 失败: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || claims.Role != "USER" {
		t.Errorf("claims 不符: %+v", claims)
	}
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("secret-a", 1, 7)
	other := NewJWTManager("secret-b", 1, 7)

	tokenString, err := m.GenerateToken(1, "alice", "USER")
	if err != nil {
		t.Fatalf("生成 token 失败: %v", err)
	}

	if _, err := other.VerifyToken(tokenString); err == nil {
		t.Error("不同密钥签发的 token 应当验证失败")
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	m := NewJWTManager("test-secret", 1, 7)
	if _, err := m.VerifyToken("not-a-jwt"); err == nil {
		t.Error("非法 token 应当验证失败")
	}
}

func TestGenerateRandomStringLength(t *testing.T) {
	s := GenerateRandomString(4)
	if len(s) != 8 {
		t.Errorf("4 字节随机串应编码为 8 个十六进制字符: got %d", len(s))
	}
	if s == GenerateRandomString(4) {
		t.Error("随机串不应重复")
	}
}
