package services

import (
	"context"
	"sort"
	"strconv"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
)

// memState mirrors the MySQL tables and their constraints closely enough for
// service tests.
type memState struct {
	bookings map[int64]models.Booking
	payments map[int64]models.Payment
	rules    map[int64]models.PricingRule
	users    map[int64]models.User
	drivers  map[int64]models.Driver
	vehicles map[int64]models.Vehicle
	nextID   int64
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s memState) clone() memState {
	return memState{
		bookings: cloneMap(s.bookings),
		payments: cloneMap(s.payments),
		rules:    cloneMap(s.rules),
		users:    cloneMap(s.users),
		drivers:  cloneMap(s.drivers),
		vehicles: cloneMap(s.vehicles),
		nextID:   s.nextID,
	}
}

// memStore implements repositories.Store. A failed or panicking unit of work
// restores the snapshot taken when it started.
type memStore struct {
	st      memState
	fail    map[string]error
	panicOn string
	txs     int
}

func newMemStore() *memStore {
	return &memStore{
		st: memState{
			bookings: map[int64]models.Booking{},
			payments: map[int64]models.Payment{},
			rules:    map[int64]models.PricingRule{},
			users:    map[int64]models.User{},
			drivers:  map[int64]models.Driver{},
			vehicles: map[int64]models.Vehicle{},
		},
		fail: map[string]error{},
	}
}

func (s *memStore) Repos() repositories.Repos {
	return repositories.Repos{
		Bookings: memBookings{s},
		Payments: memPayments{s},
		Pricing:  memPricing{s},
		Users:    memUsers{s},
		Drivers:  memDrivers{s},
		Vehicles: memVehicles{s},
	}
}

func (s *memStore) WithinTx(ctx context.Context, fn func(repositories.Repos) error) (err error) {
	s.txs++
	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		}
	}()
	if err := fn(s.Repos()); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *memStore) hook(op string) error {
	if s.panicOn == op {
		panic("injected panic in " + op)
	}
	return s.fail[op]
}

func (s *memStore) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

// seed helpers

func (s *memStore) addUser(email, role string) models.User {
	u := models.User{ID: s.id(), Email: email, Role: role, PasswordHash: "x", IsActive: true}
	s.st.users[u.ID] = u
	return u
}

func (s *memStore) addDriver(userID int64) models.Driver {
	d := models.Driver{ID: s.id(), UserID: userID, LicenseNumber: "LIC-1", IsActive: true}
	s.st.drivers[d.ID] = d
	return d
}

func (s *memStore) addBooking(userID int64, status models.BookingStatus) models.Booking {
	fare := 42.5
	b := models.Booking{
		ID:              s.id(),
		UserID:          userID,
		PickupLocation:  "Gran Via 1",
		DropoffLocation: "Aeropuerto T4",
		ScheduledTime:   time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC),
		VehicleCategory: models.CategoryStandard,
		Fare:            &fare,
		PassengerCount:  2,
		Status:          status,
	}
	s.st.bookings[b.ID] = b
	return b
}

func (s *memStore) addPayment(bookingID int64, status models.PaymentStatus, txID *string) models.Payment {
	p := models.Payment{ID: s.id(), BookingID: bookingID, Method: models.MethodCard, Status: status, Amount: 42.5, TransactionID: txID}
	s.st.payments[p.ID] = p
	return p
}

func (s *memStore) addRule(category models.VehicleCategory, active bool) models.PricingRule {
	r := models.PricingRule{
		ID: s.id(), Category: category, BaseFare: 5, PricePerKMDay: 1, PricePerKMNight: 1.5,
		AirportSurcharge: 3, HolidaySurcharge: 2, PassengerSurcharge: 4, MinFare: 10, MinFareAirport: 25,
		IsActive: active,
	}
	s.st.rules[r.ID] = r
	return r
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func paginate[T any](items []T, skip, limit int) []T {
	if skip >= len(items) {
		return []T{}
	}
	end := skip + limit
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

func sortedIDs[V any](m map[int64]V) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// bookings

type memBookings struct{ s *memStore }

func (r memBookings) Create(ctx context.Context, b *models.Booking) error {
	if err := r.s.hook("Bookings.Create"); err != nil {
		return err
	}
	if _, ok := r.s.st.users[b.UserID]; !ok {
		return domain.NotFoundError{Resource: "passenger or driver"}
	}
	if b.DriverID != nil {
		if _, ok := r.s.st.drivers[*b.DriverID]; !ok {
			return domain.NotFoundError{Resource: "passenger or driver"}
		}
	}
	if b.Status == "" {
		b.Status = models.StatusPending
	}
	b.ID = r.s.id()
	r.s.st.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(ctx context.Context, id int64) (models.Booking, error) {
	if err := r.s.hook("Bookings.GetByID"); err != nil {
		return models.Booking{}, err
	}
	b, ok := r.s.st.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func (r memBookings) LockByID(ctx context.Context, id int64) (models.Booking, error) {
	if err := r.s.hook("Bookings.LockByID"); err != nil {
		return models.Booking{}, err
	}
	return r.GetByID(ctx, id)
}

func (r memBookings) GetByTransactionID(ctx context.Context, transactionID string) (models.Booking, error) {
	for _, id := range sortedIDs(r.s.st.payments) {
		p := r.s.st.payments[id]
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			return r.GetByID(ctx, p.BookingID)
		}
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (r memBookings) full(b models.Booking) models.BookingFull {
	out := models.BookingFull{Booking: b}
	if u, ok := r.s.st.users[b.UserID]; ok {
		out.UserEmail = u.Email
		out.UserFullName = u.FullName
	}
	if b.DriverID != nil {
		if d, ok := r.s.st.drivers[*b.DriverID]; ok {
			license := d.LicenseNumber
			out.DriverLicenseNumber = &license
		}
	}
	for _, p := range r.s.st.payments {
		if p.BookingID == b.ID {
			status, method := p.Status, p.Method
			out.PaymentStatus = &status
			out.PaymentMethod = &method
		}
	}
	return out
}

func (r memBookings) GetFullByID(ctx context.Context, id int64) (models.BookingFull, error) {
	b, err := r.GetByID(ctx, id)
	if err != nil {
		return models.BookingFull{}, err
	}
	return r.full(b), nil
}

func (r memBookings) all() []models.Booking {
	out := []models.Booking{}
	for _, id := range sortedIDs(r.s.st.bookings) {
		out = append(out, r.s.st.bookings[id])
	}
	return out
}

func (r memBookings) List(ctx context.Context, skip, limit int) ([]models.Booking, int, error) {
	all := r.all()
	return paginate(all, skip, limit), len(all), nil
}

func (r memBookings) ListFull(ctx context.Context, skip, limit int) ([]models.BookingFull, int, error) {
	all := r.all()
	out := []models.BookingFull{}
	for _, b := range paginate(all, skip, limit) {
		out = append(out, r.full(b))
	}
	return out, len(all), nil
}

func (r memBookings) ListFullByUser(ctx context.Context, userID int64) ([]models.BookingFull, error) {
	out := []models.BookingFull{}
	for _, b := range r.all() {
		if b.UserID == userID {
			out = append(out, r.full(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ScheduledTime.After(out[j].ScheduledTime) })
	return out, nil
}

func (r memBookings) ListFullByDriver(ctx context.Context, driverID int64) ([]models.BookingFull, error) {
	out := []models.BookingFull{}
	for _, b := range r.all() {
		if b.DriverID != nil && *b.DriverID == driverID {
			out = append(out, r.full(b))
		}
	}
	return out, nil
}

func (r memBookings) Update(ctx context.Context, b models.Booking) error {
	if err := r.s.hook("Bookings.Update"); err != nil {
		return err
	}
	if _, ok := r.s.st.bookings[b.ID]; !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if b.DriverID != nil {
		if _, ok := r.s.st.drivers[*b.DriverID]; !ok {
			return domain.NotFoundError{Resource: "driver"}
		}
	}
	r.s.st.bookings[b.ID] = b
	return nil
}

func (r memBookings) UpdateStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	if err := r.s.hook("Bookings.UpdateStatus"); err != nil {
		return err
	}
	b, ok := r.s.st.bookings[id]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	b.Status = status
	r.s.st.bookings[id] = b
	return nil
}

func (r memBookings) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.st.bookings[id]; !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	for _, p := range r.s.st.payments {
		if p.BookingID == id {
			return domain.ConflictError{Resource: "booking", Msg: "payment still references booking"}
		}
	}
	delete(r.s.st.bookings, id)
	return nil
}

// payments

type memPayments struct{ s *memStore }

func (r memPayments) txHeldElsewhere(id int64, txID string) bool {
	for _, p := range r.s.st.payments {
		if p.ID != id && p.TransactionID != nil && *p.TransactionID == txID {
			return true
		}
	}
	return false
}

func (r memPayments) Create(ctx context.Context, p *models.Payment) error {
	if err := r.s.hook("Payments.Create"); err != nil {
		return err
	}
	if _, ok := r.s.st.bookings[p.BookingID]; !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	for _, existing := range r.s.st.payments {
		if existing.BookingID == p.BookingID {
			return domain.ConflictError{Resource: "payment", Msg: "booking already has a payment"}
		}
	}
	if p.TransactionID != nil && r.txHeldElsewhere(0, *p.TransactionID) {
		return domain.ConflictError{Resource: "payment", Msg: "transaction id already recorded"}
	}
	p.ID = r.s.id()
	r.s.st.payments[p.ID] = *p
	return nil
}

func (r memPayments) GetByID(ctx context.Context, id int64) (models.Payment, error) {
	p, ok := r.s.st.payments[id]
	if !ok {
		return models.Payment{}, domain.NotFoundError{Resource: "payment"}
	}
	return p, nil
}

func (r memPayments) GetByBookingID(ctx context.Context, bookingID int64) (models.Payment, error) {
	for _, p := range r.s.st.payments {
		if p.BookingID == bookingID {
			return p, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (r memPayments) LockByBookingID(ctx context.Context, bookingID int64) (models.Payment, error) {
	if err := r.s.hook("Payments.LockByBookingID"); err != nil {
		return models.Payment{}, err
	}
	return r.GetByBookingID(ctx, bookingID)
}

func (r memPayments) GetByTransactionID(ctx context.Context, transactionID string) (models.Payment, error) {
	if err := r.s.hook("Payments.GetByTransactionID"); err != nil {
		return models.Payment{}, err
	}
	for _, p := range r.s.st.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			return p, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (r memPayments) UpdateStatus(ctx context.Context, id int64, status models.PaymentStatus, transactionID *string) error {
	if err := r.s.hook("Payments.UpdateStatus"); err != nil {
		return err
	}
	p, ok := r.s.st.payments[id]
	if !ok {
		return domain.NotFoundError{Resource: "payment"}
	}
	if transactionID != nil {
		if r.txHeldElsewhere(id, *transactionID) {
			return domain.ConflictError{Resource: "payment", Msg: "transaction id already recorded"}
		}
		if p.TransactionID != nil && *p.TransactionID != *transactionID {
			return domain.ConflictError{Resource: "payment", Msg: "transaction id already set"}
		}
		tx := *transactionID
		p.TransactionID = &tx
	}
	p.Status = status
	r.s.st.payments[id] = p
	return nil
}

func (r memPayments) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	for id, p := range r.s.st.payments {
		if p.BookingID == bookingID {
			delete(r.s.st.payments, id)
		}
	}
	return nil
}

// pricing

type memPricing struct{ s *memStore }

func (r memPricing) activeTaken(rule models.PricingRule) bool {
	if !rule.IsActive {
		return false
	}
	for _, other := range r.s.st.rules {
		if other.ID != rule.ID && other.IsActive && other.Category == rule.Category {
			return true
		}
	}
	return false
}

func (r memPricing) Create(ctx context.Context, rule *models.PricingRule) error {
	if r.activeTaken(*rule) {
		return domain.ConflictError{Resource: "pricing rule", Msg: "active rule exists"}
	}
	rule.ID = r.s.id()
	r.s.st.rules[rule.ID] = *rule
	return nil
}

func (r memPricing) GetActiveByCategory(ctx context.Context, category models.VehicleCategory) (models.PricingRule, error) {
	for _, rule := range r.s.st.rules {
		if rule.IsActive && rule.Category == category {
			return rule, nil
		}
	}
	return models.PricingRule{}, domain.NotFoundError{Resource: "pricing rule"}
}

func (r memPricing) List(ctx context.Context) ([]models.PricingRule, error) {
	out := []models.PricingRule{}
	for _, id := range sortedIDs(r.s.st.rules) {
		out = append(out, r.s.st.rules[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (r memPricing) ListActive(ctx context.Context) ([]models.PricingRule, error) {
	if err := r.s.hook("Pricing.ListActive"); err != nil {
		return nil, err
	}
	all, _ := r.List(ctx)
	out := []models.PricingRule{}
	for _, rule := range all {
		if rule.IsActive {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (r memPricing) Update(ctx context.Context, rule models.PricingRule) error {
	if _, ok := r.s.st.rules[rule.ID]; !ok {
		return domain.NotFoundError{Resource: "pricing rule"}
	}
	if r.activeTaken(rule) {
		return domain.ConflictError{Resource: "pricing rule", Msg: "active rule exists"}
	}
	r.s.st.rules[rule.ID] = rule
	return nil
}

func (r memPricing) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.st.rules[id]; !ok {
		return domain.NotFoundError{Resource: "pricing rule"}
	}
	delete(r.s.st.rules, id)
	return nil
}

// users

type memUsers struct{ s *memStore }

func (r memUsers) emailTaken(id int64, email string) bool {
	for _, u := range r.s.st.users {
		if u.ID != id && u.Email == email {
			return true
		}
	}
	return false
}

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	if r.emailTaken(0, u.Email) {
		return domain.ConflictError{Resource: "user", Msg: "email already registered"}
	}
	u.ID = r.s.id()
	r.s.st.users[u.ID] = *u
	return nil
}

func (r memUsers) GetByID(ctx context.Context, id int64) (models.User, error) {
	u, ok := r.s.st.users[id]
	if !ok {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	for _, u := range r.s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (r memUsers) List(ctx context.Context, skip, limit int) ([]models.User, int, error) {
	all := []models.User{}
	for _, id := range sortedIDs(r.s.st.users) {
		all = append(all, r.s.st.users[id])
	}
	return paginate(all, skip, limit), len(all), nil
}

func (r memUsers) Update(ctx context.Context, u models.User) error {
	if r.emailTaken(u.ID, u.Email) {
		return domain.ConflictError{Resource: "user", Msg: "email already registered"}
	}
	r.s.st.users[u.ID] = u
	return nil
}

func (r memUsers) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.st.users[id]; !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	for _, d := range r.s.st.drivers {
		if d.UserID == id {
			return domain.ConflictError{Resource: "user", Msg: "user still has bookings or a driver profile"}
		}
	}
	for _, b := range r.s.st.bookings {
		if b.UserID == id {
			return domain.ConflictError{Resource: "user", Msg: "user still has bookings or a driver profile"}
		}
	}
	delete(r.s.st.users, id)
	return nil
}

// drivers

type memDrivers struct{ s *memStore }

func (r memDrivers) Create(ctx context.Context, d *models.Driver) error {
	if _, ok := r.s.st.users[d.UserID]; !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	for _, other := range r.s.st.drivers {
		if other.UserID == d.UserID {
			return domain.ConflictError{Resource: "driver", Msg: "user already has a driver profile"}
		}
	}
	d.ID = r.s.id()
	r.s.st.drivers[d.ID] = *d
	return nil
}

func (r memDrivers) GetByID(ctx context.Context, id int64) (models.Driver, error) {
	d, ok := r.s.st.drivers[id]
	if !ok {
		return models.Driver{}, domain.NotFoundError{Resource: "driver"}
	}
	return d, nil
}

func (r memDrivers) full(d models.Driver) models.DriverFull {
	u := r.s.st.users[d.UserID]
	return models.DriverFull{Driver: d, Email: u.Email, FullName: u.FullName, PhoneNumber: u.PhoneNumber}
}

func (r memDrivers) GetFullByID(ctx context.Context, id int64) (models.DriverFull, error) {
	d, err := r.GetByID(ctx, id)
	if err != nil {
		return models.DriverFull{}, err
	}
	return r.full(d), nil
}

func (r memDrivers) ListFull(ctx context.Context, skip, limit int) ([]models.DriverFull, int, error) {
	all := []models.DriverFull{}
	for _, id := range sortedIDs(r.s.st.drivers) {
		all = append(all, r.full(r.s.st.drivers[id]))
	}
	return paginate(all, skip, limit), len(all), nil
}

func (r memDrivers) Update(ctx context.Context, d models.Driver) error {
	r.s.st.drivers[d.ID] = d
	return nil
}

func (r memDrivers) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.st.drivers[id]; !ok {
		return domain.NotFoundError{Resource: "driver"}
	}
	for _, v := range r.s.st.vehicles {
		if v.DriverID != nil && *v.DriverID == id {
			return domain.ConflictError{Resource: "driver", Msg: "driver still has vehicles"}
		}
	}
	for bid, b := range r.s.st.bookings {
		if b.DriverID != nil && *b.DriverID == id {
			b.DriverID = nil
			r.s.st.bookings[bid] = b
		}
	}
	delete(r.s.st.drivers, id)
	return nil
}

// vehicles

type memVehicles struct{ s *memStore }

func (r memVehicles) check(v models.Vehicle) error {
	for _, other := range r.s.st.vehicles {
		if other.ID != v.ID && other.PlateNumber == v.PlateNumber {
			return domain.ConflictError{Resource: "vehicle", Msg: "plate number already registered"}
		}
	}
	if v.DriverID != nil {
		if _, ok := r.s.st.drivers[*v.DriverID]; !ok {
			return domain.NotFoundError{Resource: "driver"}
		}
	}
	return nil
}

func (r memVehicles) Create(ctx context.Context, v *models.Vehicle) error {
	if err := r.check(*v); err != nil {
		return err
	}
	v.ID = r.s.id()
	r.s.st.vehicles[v.ID] = *v
	return nil
}

func (r memVehicles) GetByID(ctx context.Context, id int64) (models.Vehicle, error) {
	v, ok := r.s.st.vehicles[id]
	if !ok {
		return models.Vehicle{}, domain.NotFoundError{Resource: "vehicle"}
	}
	return v, nil
}

func (r memVehicles) filter(keep func(models.Vehicle) bool) []models.Vehicle {
	out := []models.Vehicle{}
	for _, id := range sortedIDs(r.s.st.vehicles) {
		if v := r.s.st.vehicles[id]; keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (r memVehicles) List(ctx context.Context, skip, limit int) ([]models.Vehicle, int, error) {
	all := r.filter(func(models.Vehicle) bool { return true })
	return paginate(all, skip, limit), len(all), nil
}

func (r memVehicles) ListByDriver(ctx context.Context, driverID int64) ([]models.Vehicle, error) {
	return r.filter(func(v models.Vehicle) bool { return v.DriverID != nil && *v.DriverID == driverID }), nil
}

func (r memVehicles) ListCompanyOwned(ctx context.Context) ([]models.Vehicle, error) {
	return r.filter(func(v models.Vehicle) bool { return v.IsCompanyOwned }), nil
}

func (r memVehicles) Update(ctx context.Context, v models.Vehicle) error {
	if err := r.check(v); err != nil {
		return err
	}
	r.s.st.vehicles[v.ID] = v
	return nil
}

func (r memVehicles) Delete(ctx context.Context, id int64) error {
	if _, ok := r.s.st.vehicles[id]; !ok {
		return domain.NotFoundError{Resource: "vehicle"}
	}
	delete(r.s.st.vehicles, id)
	return nil
}
