package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"intentforge/internal/canon"
)

// signedManifestClaims is the JWS payload signed over a pack (SPEC_FULL.md
// "Pack Signing"): the sorted sha256 of every non-meta file present at
// signing time, so a verifier can catch any file added, removed, or
// mutated after the signature was produced.
type signedManifestClaims struct {
	jwt.RegisteredClaims
	Files map[string]string `json:"files"`
}

// Sign computes meta.json for the pack directory dir: a detached JWS over
// the sorted sha256 manifest of every sibling file, signed with key under
// HS256. keyID is recorded alongside the signature so a verifier can look
// up which key to check against (§ Pack Signing: "signer_key_id").
func Sign(dir string, key []byte, keyID string) error {
	manifest, err := fileManifest(dir)
	if err != nil {
		return err
	}

	claims := signedManifestClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now().UTC()),
			Issuer:   "intentforge-pack-signer",
		},
		Files: manifest,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(key)
	if err != nil {
		return fmt.Errorf("pack: cannot sign manifest: %w", err)
	}

	meta := Meta{
		SchemaVersion: MetaSchemaVersion,
		SignerKeyID:   keyID,
		Signature:     signed,
		SignedFiles:   manifest,
	}
	data, err := canon.CanonicalizeFile(meta)
	if err != nil {
		return fmt.Errorf("pack: cannot canonicalize meta.json: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileMeta), data, 0o644)
}

// VerifySignature reads meta.json from dir and checks its JWS signature
// against key, then confirms the signed manifest still matches every
// sibling file's current content (catching any post-signing tampering).
func VerifySignature(dir string, key []byte) error {
	data, err := os.ReadFile(filepath.Join(dir, FileMeta))
	if err != nil {
		return fmt.Errorf("pack: cannot read meta.json: %w", err)
	}
	var meta Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("pack: meta.json is not valid JSON: %w", err)
	}

	claims := &signedManifestClaims{}
	_, err = jwt.ParseWithClaims(meta.Signature, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return fmt.Errorf("pack: signature verification failed: %w", err)
	}

	manifest, err := fileManifest(dir)
	if err != nil {
		return err
	}
	for name, hash := range claims.Files {
		if name == FileMeta {
			continue
		}
		got, ok := manifest[name]
		if !ok || got != hash {
			return fmt.Errorf("pack: %s no longer matches the signed manifest", name)
		}
	}
	for name := range manifest {
		if _, ok := claims.Files[name]; !ok {
			return fmt.Errorf("pack: %s is not in the signed manifest", name)
		}
	}
	return nil
}

// fileManifest hashes every non-meta.json file directly under dir.
func fileManifest(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("pack: cannot list %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == FileMeta {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	manifest := make(map[string]string, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("pack: cannot read %s: %w", name, err)
		}
		manifest[name] = canon.HashBytes(data)
	}
	return manifest, nil
}
