package appointment

import (
	"context"

	"github.com/google/uuid"
)

const demoPatients = 3

type demoBooking struct {
	dayOffset int
	time      string
	status    Status
	symptoms  string
	withOTP   bool
}

var demoBookings = []demoBooking{
	{dayOffset: 1, time: "10:00", status: StatusPending, symptoms: "Regular checkup and consultation"},
	{dayOffset: 7, time: "14:30", status: StatusConfirmed, symptoms: "Follow-up appointment for previous consultation", withOTP: true},
	{dayOffset: -14, time: "11:00", status: StatusCompleted, symptoms: "General health examination", withOTP: true},
}

// SeedDemo gives a new doctor up to three sample appointments, one per
// existing patient. The doctor's availability does not matter. It never
// fails: problems are logged and the number of appointments written is
// returned.
func (s *Service) SeedDemo(ctx context.Context, doctorID uuid.UUID) int {
	patients, err := s.repo.FirstPatients(ctx, demoPatients)
	if err != nil {
		s.logger.Error().Err(err).Msg("load patients for demo appointments")
		return 0
	}
	if len(patients) == 0 {
		s.logger.Info().Str("doctor_id", doctorID.String()).Msg("no existing patients, skipping demo appointments")
		return 0
	}

	today := s.now()
	created := 0
	for i, patientID := range patients {
		if i >= len(demoBookings) {
			break
		}
		d := demoBookings[i]
		symptoms := d.symptoms
		a := &Appointment{
			ID:        uuid.New(),
			PatientID: patientID,
			DoctorID:  doctorID,
			Date:      today.AddDate(0, 0, d.dayOffset).Format("2006-01-02"),
			Time:      d.time,
			Status:    d.status,
			Symptoms:  &symptoms,
		}
		if d.withOTP {
			code, err := s.otp()
			if err != nil {
				s.logger.Error().Err(err).Msg("generate demo otp")
				continue
			}
			a.OTP = &code
		}
		if err := s.repo.CreateDemo(ctx, a); err != nil {
			s.logger.Warn().Err(err).Str("status", string(a.Status)).Msg("create demo appointment")
			continue
		}
		created++
	}
	s.logger.Info().Str("doctor_id", doctorID.String()).Int("created", created).Msg("demo appointments seeded")
	return created
}
