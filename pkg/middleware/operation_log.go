package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"RuralCare/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/mssola/user_agent"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OperationLog 写操作审计记录
type OperationLog struct {
	ID              int64     `gorm:"primaryKey;autoIncrement;not null" json:"id"`
	UserID          string    `gorm:"index;size:64" json:"user_id"` // 操作者，未登录时为空
	Username        string    `json:"username"`
	Role            string    `gorm:"size:16" json:"role"`
	Action          string    `gorm:"size:8" json:"action"`  // HTTP 方法
	Target          string    `gorm:"index" json:"target"`   // 路由模板
	Path            string    `json:"path"`                  // 实际路径
	Status          int       `json:"status"`                // 响应状态码
	IPAddress       string    `gorm:"size:64" json:"ip_address"`
	UserAgent       string    `json:"user_agent"`
	Device          string    `json:"device"`
	Browser         string    `json:"browser"`
	OperatingSystem string    `json:"operating_system"`
	Location        string    `json:"location"` // 城市，未配置 GeoIP 库时为空
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// MigrateOperationLog 建表
func MigrateOperationLog(db *gorm.DB) error {
	return db.AutoMigrate(&OperationLog{})
}

// GeoLocator 根据 IP 查询城市
type GeoLocator interface {
	City(ip string) string
}

// GeoIPLocator 基于 MaxMind 城市库，reader 打开一次后复用
type GeoIPLocator struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

func OpenGeoIP(path string) (*GeoIPLocator, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &GeoIPLocator{reader: reader}, nil
}

func (g *GeoIPLocator) City(ip string) string {
	parsed := net.ParseIP(ip)
	if g == nil || parsed == nil {
		return ""
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.reader == nil {
		return ""
	}
	record, err := g.reader.City(parsed)
	if err != nil {
		return ""
	}
	return record.City.Names["en"]
}

func (g *GeoIPLocator) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}

// OperationLogMiddleware 记录写操作（非 GET/HEAD/OPTIONS）。
// 在处理完成后写库，失败只记日志不影响响应
func OperationLogMiddleware(db *gorm.DB, geo GeoLocator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}

		ip := clientIPFromRequest(c)
		ua := user_agent.New(c.Request.UserAgent())
		browser, version := ua.Browser()
		device := "desktop"
		if ua.Mobile() {
			device = "mobile"
		}
		if ua.Bot() {
			device = "bot"
		}
		location := ""
		if geo != nil {
			location = geo.City(ip)
		}
		target := c.FullPath()
		if target == "" {
			target = c.Request.URL.Path
		}

		entry := OperationLog{
			UserID:          c.GetString(UserIDKey),
			Username:        c.GetString(UsernameKey),
			Role:            c.GetString(RoleKey),
			Action:          c.Request.Method,
			Target:          target,
			Path:            c.Request.URL.Path,
			Status:          c.Writer.Status(),
			IPAddress:       ip,
			UserAgent:       c.Request.UserAgent(),
			Device:          device,
			Browser:         joinNonEmpty(browser, version),
			OperatingSystem: ua.OS(),
			Location:        location,
		}
		if err := db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
			logger.Warn("record operation log failed", zap.String("target", target), zap.Error(err))
		}
	}
}

// ListOperationLogs 最近的审计记录，userID 为空时不过滤
func ListOperationLogs(db *gorm.DB, userID string, limit int) ([]OperationLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := db.Order("id desc").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	var logs []OperationLog
	err := q.Find(&logs).Error
	return logs, err
}

func joinNonEmpty(a, b string) string {
	if b == "" {
		return a
	}
	return a + " " + b
}
