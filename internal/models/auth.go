package models

import (
	"strings"

	apperr "RuralCare/pkg/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const passwordCost = 10

// Principal 登录后保存在会话中的身份
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`

	// 按角色填充
	Village        string `json:"village,omitempty"`
	Area           string `json:"area,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	VehicleNumber  string `json:"vehicleNumber,omitempty"`
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RegisterWorker 注册社区工作者
func RegisterWorker(db *gorm.DB, w *Worker, password string) error {
	w.Email = strings.ToLower(strings.TrimSpace(w.Email))
	if w.Email == "" || w.Name == "" {
		return apperr.Validation("Email and name are required")
	}
	if len(password) < 6 {
		return apperr.Validation("Password must be at least 6 characters")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return apperr.Internal(err, "Failed to register worker")
	}
	w.Password = hash
	return CreateWorker(db, w)
}

// Authenticate 依次在工作者、医生、救护车账号中查找邮箱并校验密码；
// 某一类账号密码不符时继续查找下一类
func Authenticate(db *gorm.DB, email, password string) (*Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if w, err := GetWorkerByEmail(db, email); err == nil {
		if CheckPassword(w.Password, password) {
			return &Principal{ID: w.ID, Email: w.Email, Name: w.Name, Role: RoleWorker, Village: w.Village, Area: w.AssignedArea}, nil
		}
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	if d, err := GetDoctorByEmail(db, email); err == nil {
		if CheckPassword(d.Password, password) {
			return &Principal{ID: d.ID, Email: d.Email, Name: d.Name, Role: RoleDoctor, Area: d.Area, Specialization: d.Specialization}, nil
		}
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	if a, err := GetAmbulanceByEmail(db, email); err == nil {
		if CheckPassword(a.Password, password) {
			return &Principal{ID: a.ID, Email: a.Email, Name: a.DriverName, Role: RoleAmbulance, VehicleNumber: a.VehicleNumber}, nil
		}
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, err
	}
	return nil, apperr.Unauthorized("Invalid email or password")
}
