package handlers

import (
	"github.com/suPer8Hu/symptom-checker/internal/history"
	"github.com/suPer8Hu/symptom-checker/internal/symptom"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ServiceName = "healthcare-symptom-checker"

type Handler struct {
	DB         *gorm.DB
	CheckSvc   *symptom.Service
	HistorySvc *history.Service
	Log        *zap.Logger
	Version    string
}

func NewHandler(db *gorm.DB, checkSvc *symptom.Service, historySvc *history.Service, log *zap.Logger, version string) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if version == "" {
		version = "1.0.0"
	}
	return &Handler{
		DB:         db,
		CheckSvc:   checkSvc,
		HistorySvc: historySvc,
		Log:        log,
		Version:    version,
	}
}
