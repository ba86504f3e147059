package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DemoPassword 演示账号统一密码
const DemoPassword = "password123"

func f64(v float64) *float64 { return &v }

func strp(s string) *string { return &s }

func at(lat, lng float64) Location { return Location{Lat: f64(lat), Lng: f64(lng)} }

// SeedDemo 写入演示数据（3 位医生、2 辆救护车、1 名工作者、3 位患者和 1 条已升级警报）。
// 库中已有医生时跳过，返回是否写入
func SeedDemo(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Model(&Doctor{}).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	hash, err := HashPassword(DemoPassword)
	if err != nil {
		return false, err
	}
	// 固定创建时间，保证“按创建时间取第一位”的顺序稳定
	t0 := time.Now().Add(-time.Hour)
	stamp := func(id string, i int) Base {
		return Base{ID: id, CreatedAt: t0.Add(time.Duration(i) * time.Second)}
	}

	doctors := []Doctor{
		{Base: stamp("dr-sarah", 0), Location: at(23.8103, 90.4125), Name: "Dr. Sarah Johnson", Specialization: "General Physician",
			Phone: "+1234567890", Email: "sarah.johnson@hospital.com", Password: hash, Hospital: "Rural Health Center",
			Area: "North District", ExperienceYears: 10, Status: DoctorActive, Available: true},
		{Base: stamp("dr-michael", 1), Location: at(23.7561, 90.3872), Name: "Dr. Michael Chen", Specialization: "Cardiologist",
			Phone: "+1234567891", Email: "michael.chen@hospital.com", Password: hash, Hospital: "District Hospital",
			Area: "South District", ExperienceYears: 15, Status: DoctorActive, Available: true},
		{Base: stamp("dr-priya", 2), Location: at(23.7941, 90.4043), Name: "Dr. Priya Sharma", Specialization: "Pediatrician",
			Phone: "+1234567892", Email: "priya.sharma@hospital.com", Password: hash, Hospital: "Community Clinic",
			Area: "East District", ExperienceYears: 5, Status: DoctorBusy, Available: false},
	}
	ambulances := []Ambulance{
		{Base: stamp("amb-1", 3), Location: at(23.8103, 90.4125), VehicleNumber: "AMB-001", DriverName: "John Smith",
			DriverPhone: "+1234567893", Email: "driver1@ambulance.com", Password: hash, Station: "Main Station", Available: true},
		{Base: stamp("amb-2", 4), Location: at(23.8321, 90.4215), VehicleNumber: "AMB-002", DriverName: "David Brown",
			DriverPhone: "+1234567894", Email: "driver2@ambulance.com", Password: hash, Station: "North Station", Available: true},
	}
	worker := Worker{Base: stamp("worker-1", 5), Email: "worker@healthcare.com", Name: "Maria Garcia", Phone: "+1234567895",
		Password: hash, Village: "Greenfield", AssignedArea: "North District"}
	patients := []Patient{
		{Base: stamp("patient-1", 6), Location: at(23.8215, 90.4182), PatientCode: "P-0001", Name: "Robert Williams", Age: 45,
			Gender: "Male", Phone: "+1234567896", Address: "123 Main Street", Village: "Greenfield", BloodGroup: "O+",
			Allergies: datatypes.JSONSlice[string]{"Penicillin"}, ChronicDiseases: datatypes.JSONSlice[string]{"Hypertension"}, WorkerID: worker.ID},
		{Base: stamp("patient-2", 7), Location: at(23.8152, 90.4091), PatientCode: "P-0002", Name: "Emily Davis", Age: 32,
			Gender: "Female", Phone: "+1234567897", Address: "456 Oak Avenue", Village: "Greenfield", BloodGroup: "A+",
			Allergies: datatypes.JSONSlice[string]{}, ChronicDiseases: datatypes.JSONSlice[string]{"Diabetes Type 2"}, WorkerID: worker.ID},
		{Base: stamp("patient-3", 8), Location: at(23.8190, 90.4150), PatientCode: "P-0003", Name: "James Miller", Age: 67,
			Gender: "Male", Phone: "+1234567898", Address: "789 Pine Road", Village: "Greenfield", BloodGroup: "B+",
			Allergies: datatypes.JSONSlice[string]{"Sulfa drugs"}, ChronicDiseases: datatypes.JSONSlice[string]{"Arthritis", "High Cholesterol"}, WorkerID: worker.ID},
	}
	records := []MedicalRecord{
		{PatientID: "patient-1", Diagnosis: "Seasonal Flu", Symptoms: datatypes.JSONSlice[string]{"Fever", "Cough", "Body Ache"},
			Treatment: "Rest and hydration, antipyretics", Medications: datatypes.JSONSlice[string]{"Paracetamol 500mg", "Cough syrup"},
			Notes: "Patient advised to rest for 3-4 days", VisitDate: time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)},
		{PatientID: "patient-2", Diagnosis: "Diabetes Follow-up", Symptoms: datatypes.JSONSlice[string]{"Fatigue", "Increased thirst"},
			Treatment: "Medication adjustment", Medications: datatypes.JSONSlice[string]{"Metformin 500mg twice daily"},
			Notes: "Blood sugar levels improving", VisitDate: time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)},
	}
	alert := MedicalAlert{
		Base:      stamp("test-escalated-alert", 9),
		PatientID: "patient-1",
		WorkerID:  worker.ID,
		DoctorID:  strp("dr-sarah"),
		Symptoms:  datatypes.JSONSlice[string]{"Chest Pain", "Shortness of Breath"},
		Severity:  SeveritySevere,
		VitalSigns: datatypes.NewJSONType(VitalSigns{
			BloodPressure: "160/95",
			Pulse:         f64(110),
			Temperature:   f64(99.5),
		}),
		PrimaryTreatment: "Administered Aspirin 325mg",
		Status:           AlertEscalated,
	}
	assessment := RiskAssessment{
		Base:               stamp("test-escalated-assessment", 10),
		AlertID:            alert.ID,
		RiskLevel:          RiskHigh,
		AIAnalysis:         "Symptoms suggest potential Acute Coronary Syndrome.",
		PrimaryCareAdvice:  "Immediate transport required.",
		RequiresSpecialist: true,
		EstimatedSeverity:  9,
		Source:             SourceLLM,
	}
	response := EmergencyResponse{
		Base:           stamp("test-escalated-response", 11),
		AssessmentID:   assessment.ID,
		ResponseType:   ResponseAmbulanceDispatch,
		DoctorAssigned: true,
		DoctorID:       strp("dr-sarah"),
		Status:         TaskInitiated,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		steps := []interface{}{&doctors, &ambulances, &worker, &patients, &records, &alert, &assessment, &response}
		for _, v := range steps {
			if err := tx.Create(v).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
