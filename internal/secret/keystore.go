package secret

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hwbench/station/pkg/api"
)

type (
	// Keystore is the production secret store: values provisioned by the
	// fleet backend sit in Redis sealed with AES-GCM under a per-station
	// key. Lookups are read-only from the engine's view
	Keystore struct {
		client *redis.Client
		aead   cipher.AEAD
		prefix string
	}

	// KeystoreConfig carries connection and sealing settings
	KeystoreConfig struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		Prefix   string `yaml:"prefix"`
		KeyHex   string `yaml:"key_hex"`
		DB       int    `yaml:"db"`
	}
)

var _ Store = (*Keystore)(nil)

var (
	ErrBadStationKey = errors.New("station key must be 32 hex-encoded bytes")
	ErrSealedValue   = errors.New("sealed value corrupt")
)

const stationKeyLen = 32

// NewKeystore connects to the keystore backend and prepares the AEAD used
// to open sealed values
func NewKeystore(cfg KeystoreConfig) (*Keystore, error) {
	aead, err := newAEAD(cfg.KeyHex)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &Keystore{
		client: client,
		aead:   aead,
		prefix: cfg.Prefix,
	}, nil
}

// Close releases the backend connection
func (k *Keystore) Close() error {
	return k.client.Close()
}

// Get implements Store. A missing key is ErrSecretNotFound; transport and
// sealing failures are infrastructure errors
func (k *Keystore) Get(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrSecretNameEmpty
	}

	sealed, err := k.client.Get(ctx, k.keyFor(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	if err != nil {
		return "", api.AsInfra(fmt.Errorf("keystore get %s: %w", name, err))
	}

	plain, err := open(k.aead, sealed)
	if err != nil {
		return "", api.AsInfra(fmt.Errorf("keystore open %s: %w", name, err))
	}
	return plain, nil
}

// Put seals and stores a secret value. The engine never calls this; it
// exists for provisioning tooling and tests
func (k *Keystore) Put(ctx context.Context, name, value string) error {
	if name == "" {
		return ErrSecretNameEmpty
	}
	sealed, err := seal(k.aead, value)
	if err != nil {
		return err
	}
	return k.client.Set(ctx, k.keyFor(name), sealed, 0).Err()
}

func (k *Keystore) keyFor(name string) string {
	return k.prefix + ":secret:" + name
}

func newAEAD(keyHex string) (cipher.AEAD, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil || len(key) != stationKeyLen {
		return nil, ErrBadStationKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(aead cipher.AEAD, plain string) (string, error) {
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func open(aead cipher.AEAD, sealed string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSealedValue, err)
	}
	if len(data) < aead.NonceSize() {
		return "", ErrSealedValue
	}
	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSealedValue, err)
	}
	return string(plain), nil
}
