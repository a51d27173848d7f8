package gcp

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/iam"
	kms "cloud.google.com/go/kms/apiv1"
	"cloud.google.com/go/kms/apiv1/kmspb"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/blackwell-systems/gcp-cmek-logging/internal/provision"
)

const (
	encrypterDecrypterRole = "roles/cloudkms.cryptoKeyEncrypterDecrypter"

	// Auto-created keys rotate every 90 days.
	keyRotationPeriod = 90 * 24 * time.Hour
)

// KMS manages keyrings, keys, key IAM and version destruction.
type KMS struct {
	client *kms.KeyManagementClient
}

// KeyRingExists probes the keyring by fully qualified name.
func (k *KMS) KeyRingExists(ctx context.Context, name string) (bool, error) {
	_, err := k.client.GetKeyRing(ctx, &kmspb.GetKeyRingRequest{Name: name})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("kms.getKeyRing: %w", err)
	}
	return true, nil
}

// CreateKeyRing creates the keyring; a concurrent creation is a no-op.
func (k *KMS) CreateKeyRing(ctx context.Context, parent, id string) error {
	_, err := k.client.CreateKeyRing(ctx, &kmspb.CreateKeyRingRequest{
		Parent:    parent,
		KeyRingId: id,
	})
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("kms.createKeyRing: %w", err)
	}
	return nil
}

// KeyExists probes the crypto key by fully qualified name.
func (k *KMS) KeyExists(ctx context.Context, name string) (bool, error) {
	_, err := k.client.GetCryptoKey(ctx, &kmspb.GetCryptoKeyRequest{Name: name})
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("kms.getCryptoKey: %w", err)
	}
	return true, nil
}

// CreateKey creates a symmetric encryption key with scheduled rotation.
func (k *KMS) CreateKey(ctx context.Context, parent, id string) error {
	_, err := k.client.CreateCryptoKey(ctx, &kmspb.CreateCryptoKeyRequest{
		Parent:      parent,
		CryptoKeyId: id,
		CryptoKey: &kmspb.CryptoKey{
			Purpose: kmspb.CryptoKey_ENCRYPT_DECRYPT,
			VersionTemplate: &kmspb.CryptoKeyVersionTemplate{
				Algorithm:       kmspb.CryptoKeyVersion_GOOGLE_SYMMETRIC_ENCRYPTION,
				ProtectionLevel: kmspb.ProtectionLevel_SOFTWARE,
			},
			RotationSchedule: &kmspb.CryptoKey_RotationPeriod{
				RotationPeriod: durationpb.New(keyRotationPeriod),
			},
			NextRotationTime: timestamppb.New(time.Now().Add(keyRotationPeriod)),
		},
	})
	if err != nil && !IsAlreadyExists(err) {
		return fmt.Errorf("kms.createCryptoKey: %w", err)
	}
	return nil
}

// GrantEncrypterDecrypter grants the encrypter/decrypter role on the key.
// Granting an existing binding leaves the policy unchanged.
func (k *KMS) GrantEncrypterDecrypter(ctx context.Context, keyName, member string) error {
	return k.modifyPolicy(ctx, keyName, func(policy *iam.Policy) {
		policy.Add(member, encrypterDecrypterRole)
	})
}

// RevokeEncrypterDecrypter removes the encrypter/decrypter role binding.
func (k *KMS) RevokeEncrypterDecrypter(ctx context.Context, keyName, member string) error {
	return k.modifyPolicy(ctx, keyName, func(policy *iam.Policy) {
		policy.Remove(member, encrypterDecrypterRole)
	})
}

func (k *KMS) modifyPolicy(ctx context.Context, keyName string, mutate func(*iam.Policy)) error {
	handle := k.client.ResourceIAM(keyName)

	policy, err := handle.Policy(ctx)
	if err != nil {
		if IsNotFound(err) {
			return provision.ErrNotFound
		}
		return fmt.Errorf("kms.getIamPolicy %s: %w", keyName, err)
	}

	mutate(policy)

	if err := handle.SetPolicy(ctx, policy); err != nil {
		return fmt.Errorf("kms.setIamPolicy %s: %w", keyName, err)
	}
	return nil
}

// DestroyKeyVersions schedules every enabled or disabled version of the key
// for destruction. KMS enforces a 24 hour grace window before the material
// is destroyed, and never deletes the key or keyring resources.
func (k *KMS) DestroyKeyVersions(ctx context.Context, keyName string) (int, error) {
	it := k.client.ListCryptoKeyVersions(ctx, &kmspb.ListCryptoKeyVersionsRequest{
		Parent: keyName,
	})

	count := 0
	for {
		version, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if IsNotFound(err) {
				return count, provision.ErrNotFound
			}
			return count, fmt.Errorf("kms.listCryptoKeyVersions: %w", err)
		}

		switch version.State {
		case kmspb.CryptoKeyVersion_ENABLED, kmspb.CryptoKeyVersion_DISABLED:
		default:
			continue
		}

		_, err = k.client.DestroyCryptoKeyVersion(ctx, &kmspb.DestroyCryptoKeyVersionRequest{
			Name: version.Name,
		})
		if err != nil {
			return count, fmt.Errorf("kms.destroyCryptoKeyVersion %s: %w", version.Name, err)
		}
		count++
	}
	return count, nil
}
