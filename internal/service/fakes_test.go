package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/eventpass/internal/model"
	"github.com/Shivanand-hulikatti/eventpass/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeEvents struct {
	events      map[string]*model.Event
	ticketTypes map[string]*model.TicketType
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: map[string]*model.Event{}, ticketTypes: map[string]*model.TicketType{}}
}

func (f *fakeEvents) Create(_ context.Context, title string) (*model.Event, error) {
	e := &model.Event{ID: uuid.New().String(), Title: title}
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEvents) GetByID(_ context.Context, id string) (*model.Event, error) {
	if e, ok := f.events[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEvents) CreateTicketType(_ context.Context, t model.TicketType) (*model.TicketType, error) {
	t.ID = uuid.New().String()
	f.ticketTypes[t.ID] = &t
	return &t, nil
}

func (f *fakeEvents) GetTicketType(_ context.Context, id string) (*model.TicketType, error) {
	if t, ok := f.ticketTypes[id]; ok {
		return t, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEvents) ListTicketTypes(_ context.Context, eventID string) ([]model.TicketType, error) {
	var out []model.TicketType
	for _, t := range f.ticketTypes {
		if t.EventID == eventID {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeUsers struct{}

func (fakeUsers) EnsureByTelegramID(_ context.Context, telegramID int64, firstName, lastName string) (*model.User, error) {
	return &model.User{ID: uuid.New().String(), TelegramID: &telegramID, FirstName: firstName, LastName: lastName}, nil
}

// fakeRegs mimics the registration store without the row lock; service
// tests only need its outcomes.
type fakeRegs struct {
	mu        sync.Mutex
	regs         map[string]*model.Registration
	createErr    error
	createStatus model.RegistrationStatus
	creates      int
}

func newFakeRegs() *fakeRegs {
	return &fakeRegs{regs: map[string]*model.Registration{}}
}

func (f *fakeRegs) add(reg model.Registration) *model.Registration {
	f.mu.Lock()
	defer f.mu.Unlock()
	if reg.ID == "" {
		reg.ID = uuid.New().String()
	}
	if reg.QrToken == "" {
		reg.QrToken = uuid.New().String()
	}
	f.regs[reg.ID] = &reg
	return &reg
}

func (f *fakeRegs) Create(_ context.Context, eventID, userID, ticketTypeID string, data map[string]any) (*model.Registration, error) {
	f.mu.Lock()
	f.creates++
	err, status := f.createErr, f.createStatus
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if status == "" {
		status = model.StatusPending
	}
	return f.add(model.Registration{
		EventID:      eventID,
		UserID:       userID,
		TicketTypeID: ticketTypeID,
		Status:       status,
		Data:         data,
	}), nil
}

func (f *fakeRegs) find(match func(*model.Registration) bool) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.regs {
		if match(r) {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRegs) FindByID(_ context.Context, id string) (*model.Registration, error) {
	return f.find(func(r *model.Registration) bool { return r.ID == id })
}

func (f *fakeRegs) FindByQrToken(_ context.Context, token string) (*model.Registration, error) {
	return f.find(func(r *model.Registration) bool { return r.QrToken == token })
}

func (f *fakeRegs) FindByEventAndUser(_ context.Context, eventID, userID string) (*model.Registration, error) {
	return f.find(func(r *model.Registration) bool { return r.EventID == eventID && r.UserID == userID })
}

func (f *fakeRegs) ListByEvent(_ context.Context, eventID string, filter model.RegistrationFilter) ([]model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Registration
	for _, r := range f.regs {
		if r.EventID != eventID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRegs) UpdateStatus(_ context.Context, id string, to model.RegistrationStatus) (*model.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !r.Status.CanTransition(to) {
		return nil, repository.ErrInvalidTransition
	}
	r.Status = to
	cp := *r
	return &cp, nil
}

type fakeChannels struct {
	loads   []model.ChannelLoad
	listErr error
}

func (f *fakeChannels) Create(_ context.Context, ch model.PaymentChannel) (*model.PaymentChannel, error) {
	ch.ID = uuid.New().String()
	ch.IsActive = true
	return &ch, nil
}

func (f *fakeChannels) SetActive(_ context.Context, id string, active bool) (*model.PaymentChannel, error) {
	for i := range f.loads {
		if f.loads[i].Channel.ID == id {
			f.loads[i].Channel.IsActive = active
			ch := f.loads[i].Channel
			return &ch, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeChannels) ListActiveWithTotals(context.Context, string) ([]model.ChannelLoad, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.ChannelLoad
	for _, l := range f.loads {
		if l.Channel.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeChannels) Stats(context.Context, string) ([]model.ChannelStats, error) {
	return nil, nil
}

type fakePayments struct {
	regs     *fakeRegs
	payments map[string]*model.Payment
}

func newFakePayments(regs *fakeRegs) *fakePayments {
	return &fakePayments{regs: regs, payments: map[string]*model.Payment{}}
}

func (f *fakePayments) CreatePending(_ context.Context, registrationID, channelID string, amount decimal.Decimal, currency string) (*model.Payment, error) {
	if _, err := f.regs.UpdateStatus(context.Background(), registrationID, model.StatusAwaitingPayment); err != nil {
		return nil, err
	}
	p := &model.Payment{
		ID:             uuid.New().String(),
		RegistrationID: registrationID,
		ChannelID:      channelID,
		Amount:         amount,
		Currency:       currency,
		Status:         model.PaymentPending,
	}
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakePayments) get(id string, from ...model.PaymentStatus) (*model.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, s := range from {
		if p.Status == s {
			return p, nil
		}
	}
	return nil, repository.ErrInvalidTransition
}

func (f *fakePayments) AttachProof(_ context.Context, paymentID, proofRef string) (*model.Payment, error) {
	p, err := f.get(paymentID, model.PaymentPending, model.PaymentScreenshotSent)
	if err != nil {
		return nil, err
	}
	p.Status = model.PaymentScreenshotSent
	p.ProofRef = &proofRef
	return p, nil
}

func (f *fakePayments) Confirm(ctx context.Context, paymentID, confirmedBy string) (*model.Payment, error) {
	p, err := f.get(paymentID, model.PaymentPending, model.PaymentScreenshotSent)
	if err != nil {
		return nil, err
	}
	if _, err := f.regs.UpdateStatus(ctx, p.RegistrationID, model.StatusConfirmed); err != nil {
		return nil, err
	}
	p.Status = model.PaymentConfirmed
	p.ConfirmedBy = &confirmedBy
	return p, nil
}

func (f *fakePayments) Reject(_ context.Context, paymentID, reason string) (*model.Payment, error) {
	p, err := f.get(paymentID, model.PaymentPending, model.PaymentScreenshotSent)
	if err != nil {
		return nil, err
	}
	p.Status = model.PaymentRejected
	p.RejectionReason = &reason
	return p, nil
}

func (f *fakePayments) FindByID(_ context.Context, id string) (*model.Payment, error) {
	if p, ok := f.payments[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePayments) LatestByRegistration(_ context.Context, registrationID string) (*model.Payment, error) {
	var latest *model.Payment
	for _, p := range f.payments {
		if p.RegistrationID == registrationID {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (f *fakePayments) ListForReview(context.Context, string) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if p.Status == model.PaymentScreenshotSent {
			out = append(out, *p)
		}
	}
	return out, nil
}

// fakeCheckins keeps the first check-in per registration, like the unique
// constraint does.
type fakeCheckins struct {
	mu       sync.Mutex
	regs     *fakeRegs
	checkins map[string]model.CheckIn
}

func newFakeCheckins(regs *fakeRegs) *fakeCheckins {
	return &fakeCheckins{regs: regs, checkins: map[string]model.CheckIn{}}
}

func (f *fakeCheckins) CheckIn(ctx context.Context, registrationID, scannedBy string, location *string) (*model.CheckInResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.checkins[registrationID]; ok {
		return &model.CheckInResult{CheckIn: existing, AlreadyRedeemed: true}, nil
	}
	reg, err := f.regs.FindByID(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if reg.Status != model.StatusConfirmed {
		return nil, repository.ErrNotConfirmed
	}
	if _, err := f.regs.UpdateStatus(ctx, registrationID, model.StatusCheckedIn); err != nil {
		return nil, err
	}
	c := model.CheckIn{ID: uuid.New().String(), RegistrationID: registrationID, ScannedBy: scannedBy, Location: location}
	f.checkins[registrationID] = c
	return &model.CheckInResult{CheckIn: c}, nil
}

func (f *fakeCheckins) ListByEvent(context.Context, string) ([]model.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CheckIn
	for _, c := range f.checkins {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCheckins) Stats(context.Context, string) (model.CheckinStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.NewCheckinStats(len(f.regs.regs), len(f.checkins)), nil
}

type fakePins struct {
	hashes map[string]string
}

func newFakePins() *fakePins {
	return &fakePins{hashes: map[string]string{}}
}

func (f *fakePins) SetHash(_ context.Context, eventID, hash string) error {
	f.hashes[eventID] = hash
	return nil
}

func (f *fakePins) Hash(_ context.Context, eventID string) (string, bool, error) {
	h, ok := f.hashes[eventID]
	return h, ok, nil
}

func (f *fakePins) Delete(_ context.Context, eventID string) error {
	delete(f.hashes, eventID)
	return nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeSender) SendTicket(_ context.Context, registrationID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, registrationID)
	return f.err
}

type fakeLimiter struct {
	max     int
	counts  map[string]int
	resets  int
	failErr error
}

func (f *fakeLimiter) Allow(_ context.Context, key string) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[key]++
	return f.counts[key] <= f.max, nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	f.resets++
	delete(f.counts, key)
	return nil
}
