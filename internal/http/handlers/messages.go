package handlers

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgValidation        = "The request is invalid."
	msgNotFound          = "The requested resource was not found."
	msgInsufficientFunds = "The campaign does not have enough funds for this payout."
	msgState             = "This action is not allowed in the current state."
	msgForbidden         = "You are not allowed to perform this action."
	msgUnauthorized      = "Authentication is required."
	msgUnavailable       = "The service is temporarily unavailable. Please retry."
	msgConflict          = "The request conflicts with existing data."
	msgOutcomeUnknown    = "The request may have been applied. Check its result before sending it again."
	msgInternal          = "An unexpected error occurred."
	msgUnsupportedType   = "This file type is not supported."
	msgTooLarge          = "The upload is too large."
)

func init() {
	id := language.Indonesian
	for key, text := range map[string]string{
		msgValidation:        "Permintaan tidak valid.",
		msgNotFound:          "Data yang diminta tidak ditemukan.",
		msgInsufficientFunds: "Dana kampanye tidak mencukupi untuk pencairan ini.",
		msgState:             "Tindakan ini tidak diizinkan pada status saat ini.",
		msgForbidden:         "Anda tidak diizinkan melakukan tindakan ini.",
		msgUnauthorized:      "Autentikasi diperlukan.",
		msgUnavailable:       "Layanan sedang tidak tersedia. Silakan coba lagi.",
		msgConflict:          "Permintaan bertentangan dengan data yang sudah ada.",
		msgOutcomeUnknown:    "Permintaan mungkin sudah diproses. Periksa hasilnya sebelum mengirim ulang.",
		msgInternal:          "Terjadi kesalahan yang tidak terduga.",
		msgUnsupportedType:   "Jenis berkas ini tidak didukung.",
		msgTooLarge:          "Unggahan terlalu besar.",
	} {
		_ = message.SetString(id, key, text)
	}
}

func localize(locale, key string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf(key)
}
