package signclient

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"solwc.io/wallet-adapter/pkg/errors"
)

func aes256Encrypt(content, encryptionKey, iv []byte) ([]byte, error) {
	bPlaintext := pkcs5Padding(content, aes.BlockSize)
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	ciphertext := make([]byte, len(bPlaintext))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, bPlaintext)
	return ciphertext, nil
}

func aes256Decrypt(cipherText, encryptionKey, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	if len(cipherText)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext not block aligned")
	}
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(cipherText, cipherText)
	return pkcs5Unpadding(cipherText)
}

func pkcs5Padding(cipherText []byte, blockSize int) []byte {
	padding := blockSize - len(cipherText)%blockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(cipherText, padText...)
}

func pkcs5Unpadding(plainText []byte) ([]byte, error) {
	if len(plainText) == 0 {
		return nil, errors.New("empty plaintext")
	}
	padding := int(plainText[len(plainText)-1])
	if padding == 0 || padding > len(plainText) {
		return nil, errors.New("invalid padding")
	}
	return plainText[:len(plainText)-padding], nil
}

func generateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func hmacSha256(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}

// encryptJSONRpc seals a JSON-RPC body for publication on a topic.
func encryptJSONRpc(jsonRpc string, symKey []byte) (*encryptedPayload, error) {
	iv, err := generateRandomBytes(128 / 8)
	if err != nil {
		return nil, errors.WrapAndReport(err, "generate random bytes")
	}
	data, err := aes256Encrypt([]byte(jsonRpc), symKey, iv)
	if err != nil {
		return nil, err
	}
	unsigned := append(data, iv...)
	mac := hmacSha256(unsigned, symKey)
	return &encryptedPayload{
		Data: hex.EncodeToString(data),
		IV:   hex.EncodeToString(iv),
		Hmac: hex.EncodeToString(mac),
	}, nil
}

// decryptJSONRpc opens a payload received on a topic, verifying its
// HMAC before decryption.
func decryptJSONRpc(payload *encryptedPayload, symKey []byte) (string, error) {
	iv, err := hex.DecodeString(payload.IV)
	if err != nil {
		return "", errors.WrapAndReport(err, "decode iv hex")
	}
	ciphered, err := hex.DecodeString(payload.Data)
	if err != nil {
		return "", errors.WrapAndReport(err, "decode cipher hex")
	}
	unsigned := append(ciphered, iv...)
	mac := hmacSha256(unsigned, symKey)
	if hex.EncodeToString(mac) != payload.Hmac {
		return "", errors.NewWithReport("inconsistent session message hmac")
	}
	data, err := aes256Decrypt(ciphered, symKey, iv)
	if err != nil {
		return "", errors.Wrap(err, "aes256 decrypt")
	}
	return string(data), nil
}
