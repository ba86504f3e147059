package emergency

import (
	"RuralCare/internal/triage"
	"RuralCare/pkg/metrics"

	"gorm.io/gorm"
)

// Service 警报处理流程：风险评估、响应编排、医生分派、救护车调度、结案
type Service struct {
	db         *gorm.DB
	classifier *triage.Classifier
	metrics    *metrics.Metrics
}

// NewService classifier 为 nil 时只使用规则评估；m 可为 nil
func NewService(db *gorm.DB, classifier *triage.Classifier, m *metrics.Metrics) *Service {
	if classifier == nil {
		classifier = triage.NewClassifier(nil)
	}
	return &Service{db: db, classifier: classifier, metrics: m}
}

// DB 底层连接，供只读查询复用
func (s *Service) DB() *gorm.DB {
	return s.db
}
