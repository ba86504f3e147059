package triage

import (
	"fmt"
	"strconv"
	"strings"
)

const assessmentSystemPrompt = `You are an expert medical AI assistant helping community health workers in rural areas make critical healthcare decisions. Your role is to:
1. Analyze patient symptoms and medical history
2. Classify risk level as LOW, MEDIUM, or HIGH
3. Provide immediate primary care advice
4. Determine if specialist care is needed

RISK CLASSIFICATION GUIDELINES:
- LOW: Minor ailments, manageable with basic care and routine doctor consultation
- MEDIUM: Concerning symptoms requiring urgent medical attention within hours
- HIGH: Life-threatening conditions requiring immediate emergency response and ambulance

Be concise, clear, and actionable. Lives depend on your assessment.`

const assessmentFormat = `
Please provide your assessment in the following JSON format:
{
  "riskLevel": "LOW|MEDIUM|HIGH",
  "aiAnalysis": "Brief analysis of the situation",
  "primaryCareAdvice": "Immediate steps the community worker should take",
  "requiresSpecialist": true/false,
  "specialistType": "Type of specialist if needed",
  "estimatedSeverity": 1-10
}`

const summarySystemPrompt = `You are a medical scribe. Your task is to summarize a patient's emergency encounter and the doctor's resolution into a structured medical record entry.
Provide the output in JSON format with "diagnosis", "treatment", and "notes" fields.
Be professional, concise, and accurate.`

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// buildAssessmentPrompt 组装 user prompt：患者信息、既往史（最多 3 条）、本次警报、生命体征
func buildAssessmentPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "PATIENT INFORMATION:\n- Age: %d years\n- Gender: %s\n", in.Patient.Age, in.Patient.Gender)
	if len(in.Patient.ChronicDiseases) > 0 {
		fmt.Fprintf(&b, "- Chronic Diseases: %s\n", strings.Join(in.Patient.ChronicDiseases, ", "))
	}
	if len(in.Patient.Allergies) > 0 {
		fmt.Fprintf(&b, "- Allergies: %s\n", strings.Join(in.Patient.Allergies, ", "))
	}

	if len(in.Patient.History) > 0 {
		b.WriteString("\nRECENT MEDICAL HISTORY:\n")
		for i, h := range in.Patient.History {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "%d. %s - Treated with %s (%s)\n", i+1, h.Diagnosis, h.Treatment, h.Date)
		}
	}

	fmt.Fprintf(&b, "\nCURRENT ALERT:\n- Reported Severity: %s\n- Symptoms: %s\n", in.Severity, strings.Join(in.Symptoms, ", "))

	v := in.Vitals
	if v.Temperature != nil || v.BloodPressure != "" || v.Pulse != nil || v.OxygenSaturation != nil {
		b.WriteString("\nVITAL SIGNS:\n")
		if v.Temperature != nil {
			fmt.Fprintf(&b, "- Temperature: %s°F\n", formatFloat(*v.Temperature))
		}
		if v.BloodPressure != "" {
			fmt.Fprintf(&b, "- Blood Pressure: %s\n", v.BloodPressure)
		}
		if v.Pulse != nil {
			fmt.Fprintf(&b, "- Pulse: %s bpm\n", formatFloat(*v.Pulse))
		}
		if v.OxygenSaturation != nil {
			fmt.Fprintf(&b, "- Oxygen Saturation: %s%%\n", formatFloat(*v.OxygenSaturation))
		}
	}

	if in.Description != "" {
		fmt.Fprintf(&b, "\nADDITIONAL NOTES: %s\n", in.Description)
	}
	b.WriteString(assessmentFormat)
	return b.String()
}

func buildSummaryPrompt(symptoms []string, analysis, doctorNotes string) string {
	return fmt.Sprintf("ALERT INFORMATION:\n- Symptoms: %s\n- Initial AI Analysis: %s\n\nDOCTOR'S RESOLUTION NOTES:\n%s\n\nPlease provide a professional summary.",
		strings.Join(symptoms, ", "), analysis, doctorNotes)
}
