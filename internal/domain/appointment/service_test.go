package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Rehan0707/DocNear/internal/platform/websocket"
)

func book(t *testing.T, svc *Service, patientID, doctorID uuid.UUID) *Appointment {
	t.Helper()
	a, err := svc.Book(context.Background(), patientID, BookingRequest{
		DoctorID: doctorID, Date: "2025-03-10", Time: "10:00", Symptoms: "fever",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestBook_CreatesPendingWithOTP(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")

	a := book(t, svc, patientID, doctorID)

	stored, err := repo.GetForParty(context.Background(), a.ID, patientID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != StatusPending {
		t.Errorf("expected pending, got %s", stored.Status)
	}
	if stored.Date != "2025-03-10" || stored.Time != "10:00" {
		t.Errorf("expected verbatim date and time, got %q %q", stored.Date, stored.Time)
	}
	if stored.Symptoms == nil || *stored.Symptoms != "fever" {
		t.Errorf("expected symptoms fever, got %v", stored.Symptoms)
	}
	if stored.OTP == nil || !ValidOTP(*stored.OTP) {
		t.Errorf("expected 6-digit OTP, got %v", stored.OTP)
	}
	if stored.OTPVerified {
		t.Error("new appointments start unverified")
	}
	if stored.PatientID != patientID || stored.DoctorID != doctorID {
		t.Error("parties not recorded")
	}
}

func TestBook_FreeFormDateIsStoredVerbatim(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")

	a, err := svc.Book(context.Background(), patientID, BookingRequest{
		DoctorID: doctorID, Date: "next Tuesday", Time: "after lunch", Symptoms: "cough",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if a.Date != "next Tuesday" || a.Time != "after lunch" {
		t.Errorf("expected free-form values, got %q %q", a.Date, a.Time)
	}
}

func TestBook_Rejections(t *testing.T) {
	svc, repo, _ := newTestService()
	available := repo.addDoctor("Dr. Open", true)
	unavailable := repo.addDoctor("Dr. Away", false)
	patientID := repo.addPatient("Asha")

	tests := []struct {
		name  string
		req   BookingRequest
		check func(error) bool
	}{
		{"unknown doctor", BookingRequest{DoctorID: uuid.New(), Date: "d", Time: "t", Symptoms: "s"},
			func(err error) bool { return errors.Is(err, ErrDoctorNotFound) }},
		{"unavailable doctor", BookingRequest{DoctorID: unavailable, Date: "d", Time: "t", Symptoms: "s"},
			func(err error) bool { return errors.Is(err, ErrDoctorUnavailable) }},
		{"missing date", BookingRequest{DoctorID: available, Time: "t", Symptoms: "s"}, IsValidation},
		{"missing time", BookingRequest{DoctorID: available, Date: "d", Symptoms: "s"}, IsValidation},
		{"missing symptoms", BookingRequest{DoctorID: available, Date: "d", Time: "t", Symptoms: "  "}, IsValidation},
		{"missing doctor", BookingRequest{Date: "d", Time: "t", Symptoms: "s"}, IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), patientID, tt.req)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
	if len(repo.appointments) != 0 {
		t.Errorf("expected no appointments, got %d", len(repo.appointments))
	}
}

// The gate can be stale; the storage trigger still refuses the insert.
func TestBook_StorageRejectsUnavailableDoctor(t *testing.T) {
	repo := newMockRepo()
	doctorID := repo.addDoctor("Dr. Away", false)
	svc := NewService(repo, openGate{}, nil, newTestLogger())

	_, err := svc.Book(context.Background(), uuid.New(), BookingRequest{
		DoctorID: doctorID, Date: "2025-03-10", Time: "10:00", Symptoms: "fever",
	})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Errorf("expected ErrDoctorUnavailable, got %v", err)
	}
}

func TestConfirm_UpdatesStats(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")
	a := book(t, svc, patientID, doctorID)
	book(t, svc, patientID, doctorID)

	before, err := svc.DoctorBoard(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	after, err := svc.Confirm(context.Background(), doctorID, a.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}

	if after.Stats.Pending != before.Stats.Pending-1 {
		t.Errorf("expected pending %d, got %d", before.Stats.Pending-1, after.Stats.Pending)
	}
	if after.Stats.Confirmed != before.Stats.Confirmed+1 {
		t.Errorf("expected confirmed %d, got %d", before.Stats.Confirmed+1, after.Stats.Confirmed)
	}
	if after.Stats.Total != before.Stats.Total {
		t.Errorf("total changed from %d to %d", before.Stats.Total, after.Stats.Total)
	}
}

func TestLifecycle_PartiesNeverChange(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")
	a := book(t, svc, patientID, doctorID)
	otp := *repo.appointments[a.ID].OTP
	ctx := context.Background()

	steps := []func() error{
		func() error { _, err := svc.Confirm(ctx, doctorID, a.ID); return err },
		func() error { _, err := svc.VerifyOTP(ctx, doctorID, a.ID, otp); return err },
		func() error { _, err := svc.Complete(ctx, doctorID, a.ID); return err },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		got := repo.appointments[a.ID]
		if got.PatientID != patientID || got.DoctorID != doctorID {
			t.Fatalf("step %d changed parties", i)
		}
	}
	final := repo.appointments[a.ID]
	if final.Status != StatusCompleted || !final.OTPVerified {
		t.Errorf("expected completed and verified, got %s %v", final.Status, final.OTPVerified)
	}
	if *final.OTP != otp {
		t.Error("OTP must not be regenerated")
	}
}

func TestTransitions_IllegalAreRejected(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")
	ctx := context.Background()

	a := book(t, svc, patientID, doctorID)
	if _, err := svc.Complete(ctx, doctorID, a.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete from pending: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Reject(ctx, doctorID, a.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	for _, action := range []Action{ActionConfirm, ActionReject, ActionComplete} {
		if _, err := svc.Apply(ctx, doctorID, a.ID, action); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s from rejected: expected ErrInvalidTransition, got %v", action, err)
		}
	}
	if repo.appointments[a.ID].Status != StatusRejected {
		t.Errorf("expected rejected to stick, got %s", repo.appointments[a.ID].Status)
	}
}

func TestTransitions_ScopedToDoctor(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	other := repo.addDoctor("Dr. Other", true)
	a := book(t, svc, repo.addPatient("Asha"), doctorID)

	if _, err := svc.Confirm(context.Background(), other, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if repo.appointments[a.ID].Status != StatusPending {
		t.Error("foreign doctor must not change the appointment")
	}
}

func TestApply_UnknownAction(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Apply(context.Background(), uuid.New(), uuid.New(), "cancel"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestVerifyOTP(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	a := book(t, svc, repo.addPatient("Asha"), doctorID)
	otp := *repo.appointments[a.ID].OTP
	ctx := context.Background()

	if _, err := svc.VerifyOTP(ctx, doctorID, a.ID, otp); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Confirm(ctx, doctorID, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	wrong := "100000"
	if otp == wrong {
		wrong = "100001"
	}
	if _, err := svc.VerifyOTP(ctx, doctorID, a.ID, wrong); !errors.Is(err, ErrOTPMismatch) {
		t.Errorf("expected ErrOTPMismatch, got %v", err)
	}
	if _, err := svc.VerifyOTP(ctx, doctorID, a.ID, "12ab"); !IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}

	board, err := svc.VerifyOTP(ctx, doctorID, a.ID, " "+otp+" ")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !board.Appointments[0].OTPVerified {
		t.Error("expected verified appointment on board")
	}
	if board.Appointments[0].Status != StatusConfirmed {
		t.Error("verification must not change status")
	}
	if _, err := svc.VerifyOTP(ctx, doctorID, a.ID, otp); err != nil {
		t.Errorf("second verification should succeed, got %v", err)
	}
}

func TestDoctorBoard_OrderAndEmpty(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")
	ctx := context.Background()

	board, err := svc.DoctorBoard(ctx, doctorID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if board.Appointments == nil || board.Stats.Total != 0 {
		t.Errorf("expected empty, non-nil board, got %+v", board)
	}

	for _, slot := range [][2]string{{"2025-03-11", "09:00"}, {"2025-03-10", "14:00"}, {"2025-03-10", "10:00"}} {
		if _, err := svc.Book(ctx, patientID, BookingRequest{DoctorID: doctorID, Date: slot[0], Time: slot[1], Symptoms: "fever"}); err != nil {
			t.Fatalf("book: %v", err)
		}
	}
	board, _ = svc.DoctorBoard(ctx, doctorID)
	got := []string{}
	for _, l := range board.Appointments {
		got = append(got, l.Date+" "+l.Time)
	}
	want := []string{"2025-03-10 10:00", "2025-03-10 14:00", "2025-03-11 09:00"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if board.Appointments[0].PatientName != "Asha" {
		t.Errorf("expected patient name, got %q", board.Appointments[0].PatientName)
	}
}

func TestEvents_BothPartiesNotified(t *testing.T) {
	svc, repo, pub := newTestService()
	doctorID := repo.addDoctor("Dr. Rao", true)
	patientID := repo.addPatient("Asha")
	a := book(t, svc, patientID, doctorID)
	if _, err := svc.Confirm(context.Background(), doctorID, a.ID); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	topics := pub.topics()
	if len(topics) != 4 {
		t.Fatalf("expected 4 events, got %v", topics)
	}
	counts := map[string]int{}
	for _, topic := range topics {
		counts[topic]++
	}
	if counts[websocket.UserTopic(patientID.String())] != 2 || counts[websocket.UserTopic(doctorID.String())] != 2 {
		t.Errorf("unexpected topics %v", topics)
	}
	for _, ev := range pub.events {
		if ev.Type != EventAppointmentChanged {
			t.Errorf("unexpected event type %s", ev.Type)
		}
		if containsOTP(ev.Data) {
			t.Error("event must not carry the OTP")
		}
	}
}

func TestSeedDemo(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	doctorID := repo.addDoctor("Dr. New", true)
	repo.addPatient("A")
	repo.addPatient("B")
	repo.addPatient("C")
	repo.addPatient("D")

	if n := svc.SeedDemo(context.Background(), doctorID); n != 3 {
		t.Fatalf("expected 3 demo appointments, got %d", n)
	}
	board, _ := svc.DoctorBoard(context.Background(), doctorID)
	if board.Stats.Pending != 1 || board.Stats.Confirmed != 1 || board.Stats.Completed != 1 {
		t.Errorf("unexpected stats %+v", board.Stats)
	}
	for _, l := range board.Appointments {
		switch l.Status {
		case StatusPending:
			if l.OTP != nil || l.Date != "2025-03-11" || l.Time != "10:00" {
				t.Errorf("unexpected pending demo %+v", l.Appointment)
			}
		case StatusConfirmed:
			if l.OTP == nil || l.Date != "2025-03-17" {
				t.Errorf("unexpected confirmed demo %+v", l.Appointment)
			}
		case StatusCompleted:
			if l.OTP == nil || l.Date != "2025-02-24" {
				t.Errorf("unexpected completed demo %+v", l.Appointment)
			}
		}
	}
}

func TestSeedDemo_NoPatients(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. New", true)
	if n := svc.SeedDemo(context.Background(), doctorID); n != 0 {
		t.Errorf("expected nothing seeded, got %d", n)
	}
}

func TestSeedDemo_UnavailableDoctorGetsAllRows(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. New", false)
	repo.addPatient("A")
	repo.addPatient("B")
	repo.addPatient("C")

	if n := svc.SeedDemo(context.Background(), doctorID); n != 3 {
		t.Fatalf("expected 3 demo appointments, got %d", n)
	}
	board, _ := svc.DoctorBoard(context.Background(), doctorID)
	if board.Stats.Pending != 1 || board.Stats.Confirmed != 1 || board.Stats.Completed != 1 {
		t.Errorf("unexpected stats %+v", board.Stats)
	}
}

func TestSeedDemo_SinglePatientGetsPendingRow(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := repo.addDoctor("Dr. New", false)
	patientID := repo.addPatient("A")

	if n := svc.SeedDemo(context.Background(), doctorID); n != 1 {
		t.Fatalf("expected 1 demo appointment, got %d", n)
	}
	board, _ := svc.DoctorBoard(context.Background(), doctorID)
	if board.Stats.Pending != 1 {
		t.Errorf("expected the pending demo row, got %+v", board.Stats)
	}

	_, err := svc.Book(context.Background(), patientID, BookingRequest{
		DoctorID: doctorID, Date: "2030-01-01", Time: "09:00", Symptoms: "cough",
	})
	if !errors.Is(err, ErrDoctorUnavailable) {
		t.Errorf("expected bookings to still respect availability, got %v", err)
	}
}
