// Package memory is an in-process Repository used by tests and local runs.
// Transactions are serialised by one mutex and rolled back from a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "pms/errors"
	"pms/models"
	"pms/repositories"
	"pms/types"

	"github.com/shopspring/decimal"
)

type folioKey struct {
	folioNo       string
	transactionNo string
}

type state struct {
	roomTypes    map[uint]models.RoomType
	rooms        map[int]models.Room
	stock        []models.StockRecord
	ooo          []models.OOOEntry
	blocks       []models.Block
	assignments  []models.MultiRoomAssignment
	reservations map[string]models.Reservation
	transactions map[string]models.Transaction
	folios       map[folioKey]models.Folio
	charges      []models.ChargeLine
	sequences    map[string]int64
	statusLogs   []models.RoomStatusLog
	ota          []models.OTAAvailability
	nextID       uint
}

func newState() *state {
	return &state{
		roomTypes:    map[uint]models.RoomType{},
		rooms:        map[int]models.Room{},
		reservations: map[string]models.Reservation{},
		transactions: map[string]models.Transaction{},
		folios:       map[folioKey]models.Folio{},
		sequences:    map[string]int64{},
	}
}

// refState holds reference data. It is outside the transactional snapshot and has its own
// lock, so lookups made while a transaction is open do not block on it.
type refState struct {
	currencies map[string]models.Currency
	rates      []models.ExchangeRate
	settings   map[string]models.Setting
}

func (s *state) clone() *state {
	c := *s
	c.roomTypes = copyMap(s.roomTypes)
	c.rooms = copyMap(s.rooms)
	c.reservations = copyMap(s.reservations)
	c.transactions = copyMap(s.transactions)
	c.folios = copyMap(s.folios)
	c.sequences = copyMap(s.sequences)
	c.stock = append([]models.StockRecord(nil), s.stock...)
	c.ooo = append([]models.OOOEntry(nil), s.ooo...)
	c.blocks = append([]models.Block(nil), s.blocks...)
	c.assignments = append([]models.MultiRoomAssignment(nil), s.assignments...)
	c.charges = append([]models.ChargeLine(nil), s.charges...)
	c.statusLogs = append([]models.RoomStatusLog(nil), s.statusLogs...)
	c.ota = append([]models.OTAAvailability(nil), s.ota...)
	return &c
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *state) id() uint {
	s.nextID++
	return s.nextID
}

type store struct {
	mu       sync.Mutex
	state    *state
	failures map[string]error

	refMu sync.RWMutex
	ref   refState
}

// Repository implements repositories.Repository in memory.
type Repository struct {
	store *store
	tx    *state
}

var _ repositories.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{store: &store{
		state:    newState(),
		failures: map[string]error{},
		ref: refState{
			currencies: map[string]models.Currency{},
			settings:   map[string]models.Setting{},
		},
	}}
}

// FailOn makes the named write operation return err until cleared with a nil error.
func (r *Repository) FailOn(op string, err error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err == nil {
		delete(r.store.failures, op)
		return
	}
	r.store.failures[op] = err
}

func (r *Repository) view(fn func(s *state) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.state)
}

// write is view plus failure injection; callers already hold the lock inside a transaction.
func (r *Repository) write(op string, fn func(s *state) error) error {
	return r.view(func(s *state) error {
		if err := r.store.failures[op]; err != nil {
			return err
		}
		return fn(s)
	})
}

func (r *Repository) Transaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := r.store.state.clone()
	if err := fn(&Repository{store: r.store, tx: r.store.state}); err != nil {
		r.store.state = snapshot
		return err
	}
	return nil
}

func inWindow(d, from, to time.Time) bool {
	return !d.Before(from) && d.Before(to)
}

// ---- rooms

func (r *Repository) GetRoom(ctx context.Context, roomNo int) (*models.Room, error) {
	var out *models.Room
	err := r.view(func(s *state) error {
		room, ok := s.rooms[roomNo]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &room
		return nil
	})
	return out, err
}

func (r *Repository) LockRoom(ctx context.Context, roomNo int) (*models.Room, error) {
	return r.GetRoom(ctx, roomNo)
}

func (r *Repository) LockRoomTypes(ctx context.Context, roomTypeID uint) error {
	return nil
}

func (r *Repository) GetRoomType(ctx context.Context, id uint) (*models.RoomType, error) {
	var out *models.RoomType
	err := r.view(func(s *state) error {
		rt, ok := s.roomTypes[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &rt
		return nil
	})
	return out, err
}

func (r *Repository) SaveRoom(ctx context.Context, room *models.Room) error {
	return r.write("SaveRoom", func(s *state) error {
		s.rooms[room.RoomNo] = *room
		return nil
	})
}

func (r *Repository) CountSellableRooms(ctx context.Context, roomTypeID uint) (int64, error) {
	var n int64
	err := r.view(func(s *state) error {
		for _, room := range s.rooms {
			if !room.IsSellable() || !s.roomTypes[room.RoomTypeID].Active {
				continue
			}
			if roomTypeID != 0 && room.RoomTypeID != roomTypeID {
				continue
			}
			n++
		}
		return nil
	})
	return n, err
}

// ---- stock ledger

func (r *Repository) SumStayByDate(ctx context.Context, q repositories.StockQuery) ([]models.NightCount, error) {
	var out []models.NightCount
	err := r.view(func(s *state) error {
		byDate := map[time.Time]*models.NightCount{}
		for _, rec := range s.stock {
			if !rec.IsStay || !inWindow(rec.StayDate, q.From, q.To) {
				continue
			}
			if q.RoomTypeID != 0 && rec.RoomTypeID != q.RoomTypeID {
				continue
			}
			if q.ExcludeTransaction != "" && rec.TransactionNo == q.ExcludeTransaction {
				continue
			}
			d := types.DateOnly(rec.StayDate)
			nc, ok := byDate[d]
			if !ok {
				nc = &models.NightCount{StayDate: d}
				byDate[d] = nc
			}
			nc.Stay++
			if rec.IsOutOfOrder {
				nc.OutOfOrder++
			}
			if rec.IsOutOfInventory {
				nc.OutOfInventory++
			}
		}
		for _, nc := range byDate {
			out = append(out, *nc)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].StayDate.Before(out[j].StayDate) })
		return nil
	})
	return out, err
}

func (r *Repository) SumBlocksByDate(ctx context.Context, roomTypeID uint, from, to time.Time) (map[time.Time]int64, error) {
	out := map[time.Time]int64{}
	err := r.view(func(s *state) error {
		for _, b := range s.blocks {
			if b.State != models.BlockStateConfirmed {
				continue
			}
			if roomTypeID != 0 && b.RoomTypeID != roomTypeID {
				continue
			}
			for _, n := range b.Nights {
				if inWindow(n.StayDate, from, to) {
					out[types.DateOnly(n.StayDate)] += int64(n.Quantity)
				}
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) ListMultiRoomAssignments(ctx context.Context, roomTypeID uint, from, to time.Time) ([]models.MultiRoomAssignment, error) {
	var out []models.MultiRoomAssignment
	err := r.view(func(s *state) error {
		for _, m := range s.assignments {
			if !m.Active || m.DepartDate.Before(from) || !m.FromDate.Before(to) {
				continue
			}
			if roomTypeID != 0 && m.RoomTypeID != roomTypeID && m.OriginalRoomTypeID != roomTypeID {
				continue
			}
			out = append(out, m)
		}
		return nil
	})
	return out, err
}

func (r *Repository) firstNight(q repositories.RoomNightQuery, match func(s *state, rec models.StockRecord) bool) (*time.Time, error) {
	var first *time.Time
	err := r.view(func(s *state) error {
		for _, rec := range s.stock {
			if rec.RoomNo != q.RoomNo || !rec.IsStay || !inWindow(rec.StayDate, q.From, q.To) {
				continue
			}
			if q.ExcludeTransaction != "" && rec.TransactionNo == q.ExcludeTransaction {
				continue
			}
			if !match(s, rec) {
				continue
			}
			d := types.DateOnly(rec.StayDate)
			if first == nil || d.Before(*first) {
				first = &d
			}
		}
		return nil
	})
	return first, err
}

func (r *Repository) FirstReservationNight(ctx context.Context, q repositories.RoomNightQuery) (*time.Time, error) {
	return r.firstNight(q, func(s *state, rec models.StockRecord) bool {
		res, ok := s.reservations[rec.TransactionNo]
		return ok && res.Status.HoldsInventory()
	})
}

func (r *Repository) FirstInHouseNight(ctx context.Context, q repositories.RoomNightQuery) (*time.Time, error) {
	return r.firstNight(q, func(s *state, rec models.StockRecord) bool {
		t, ok := s.transactions[rec.TransactionNo]
		return ok && t.Status == models.TransactionStatusInHouse && !rec.StayDate.Equal(t.ArrivalDate)
	})
}

func (r *Repository) ListRoomStock(ctx context.Context, roomNo int, from, to time.Time) ([]models.StockRecord, error) {
	var out []models.StockRecord
	err := r.view(func(s *state) error {
		for _, rec := range s.stock {
			if rec.RoomNo == roomNo && inWindow(rec.StayDate, from, to) {
				out = append(out, rec)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].StayDate.Before(out[j].StayDate) })
		return nil
	})
	return out, err
}

func (r *Repository) InsertStockRecords(ctx context.Context, records []models.StockRecord) error {
	return r.write("InsertStockRecords", func(s *state) error {
		for _, rec := range records {
			for _, existing := range s.stock {
				if existing.TransactionNo == rec.TransactionNo && existing.RoomNo == rec.RoomNo && existing.StayDate.Equal(rec.StayDate) {
					return apperrors.ErrConflict
				}
			}
		}
		for _, rec := range records {
			rec.ID = s.id()
			s.stock = append(s.stock, rec)
		}
		return nil
	})
}

func (r *Repository) DeleteStockRecords(ctx context.Context, f repositories.StockFilter) (int64, error) {
	var n int64
	err := r.write("DeleteStockRecords", func(s *state) error {
		kept := s.stock[:0:0]
		for _, rec := range s.stock {
			match := rec.TransactionNo == f.TransactionNo && rec.RoomNo == f.RoomNo &&
				(!f.OutOfOrder || rec.IsOutOfOrder) && (!f.OutOfInventory || rec.IsOutOfInventory)
			if match {
				n++
				continue
			}
			kept = append(kept, rec)
		}
		s.stock = kept
		return nil
	})
	return n, err
}

// ---- occupancy

func (r *Repository) ListReservationOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error) {
	var out []models.Occupancy
	err := r.view(func(s *state) error {
		for _, res := range s.reservations {
			if res.RoomNo == roomNo && res.Status.HoldsInventory() {
				out = append(out, models.Occupancy{
					Source: "reservation", Reference: res.ReservationNo, GuestName: res.GuestName,
					From: res.ArrivalDate, To: res.DepartureDate,
				})
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) ListInHouseOccupancy(ctx context.Context, roomNo int) ([]models.Occupancy, error) {
	var out []models.Occupancy
	err := r.view(func(s *state) error {
		for _, t := range s.transactions {
			if t.RoomNo == roomNo && t.Status == models.TransactionStatusInHouse {
				out = append(out, models.Occupancy{
					Source: "in-house", Reference: t.TransactionNo, GuestName: t.GuestName,
					From: t.ArrivalDate, To: t.DepartureDate,
				})
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) ListAssignmentOccupancy(ctx context.Context, roomNo int, from time.Time) ([]models.Occupancy, error) {
	var out []models.Occupancy
	err := r.view(func(s *state) error {
		for _, m := range s.assignments {
			if m.RoomNo == roomNo && m.Active && !m.DepartDate.Before(from) {
				out = append(out, models.Occupancy{
					Source: "multi-room", Reference: m.TransactionNo, GuestName: m.GuestName,
					From: m.FromDate, To: m.ToDate,
				})
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) FindReservationArriving(ctx context.Context, roomNo int, date time.Time) (*models.Reservation, error) {
	var out *models.Reservation
	err := r.view(func(s *state) error {
		for _, res := range s.reservations {
			if res.RoomNo == roomNo && res.ArrivalDate.Equal(date) && res.Status.HoldsInventory() {
				res := res
				out = &res
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) FindInHouseTransaction(ctx context.Context, roomNo int) (*models.Transaction, error) {
	var out *models.Transaction
	err := r.view(func(s *state) error {
		for _, t := range s.transactions {
			if t.RoomNo == roomNo && t.Status == models.TransactionStatusInHouse {
				t := t
				out = &t
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) GetReservation(ctx context.Context, no string) (*models.Reservation, error) {
	var out *models.Reservation
	err := r.view(func(s *state) error {
		res, ok := s.reservations[no]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &res
		return nil
	})
	return out, err
}

func (r *Repository) GetTransaction(ctx context.Context, no string) (*models.Transaction, error) {
	var out *models.Transaction
	err := r.view(func(s *state) error {
		t, ok := s.transactions[no]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

// ---- out of order

func (r *Repository) ListOOOEntries(ctx context.Context, roomNo int) ([]models.OOOEntry, error) {
	var out []models.OOOEntry
	err := r.view(func(s *state) error {
		for _, e := range s.ooo {
			if e.RoomNo == roomNo {
				out = append(out, e)
			}
		}
		return nil
	})
	return out, err
}

func (r *Repository) FindOOOEntry(ctx context.Context, roomNo int, kind models.OOOKind, from, to time.Time) (*models.OOOEntry, error) {
	var out *models.OOOEntry
	err := r.view(func(s *state) error {
		for _, e := range s.ooo {
			if e.RoomNo == roomNo && e.Kind == kind && e.FromDate.Equal(from) && e.ToDate.Equal(to) {
				e := e
				out = &e
				return nil
			}
		}
		return apperrors.ErrNotFound
	})
	return out, err
}

func (r *Repository) CreateOOOEntry(ctx context.Context, entry *models.OOOEntry) error {
	return r.write("CreateOOOEntry", func(s *state) error {
		entry.ID = s.id()
		entry.CreatedAt = time.Now()
		s.ooo = append(s.ooo, *entry)
		return nil
	})
}

func (r *Repository) DeleteOOOEntry(ctx context.Context, id uint) error {
	return r.write("DeleteOOOEntry", func(s *state) error {
		for i, e := range s.ooo {
			if e.ID == id {
				s.ooo = append(s.ooo[:i:i], s.ooo[i+1:]...)
				return nil
			}
		}
		return nil
	})
}

// ---- folio

func (r *Repository) SumCharges(ctx context.Context, q repositories.ChargeQuery) (map[models.ChargeKind]decimal.Decimal, error) {
	out := map[models.ChargeKind]decimal.Decimal{}
	err := r.view(func(s *state) error {
		for _, line := range s.charges {
			if line.TransactionNo != q.TransactionNo || !line.Status.CountsTowardBalance() {
				continue
			}
			if q.FolioNo != "" && line.FolioNo != q.FolioNo {
				continue
			}
			out[line.Kind] = out[line.Kind].Add(line.Amount)
		}
		return nil
	})
	return out, err
}

func (r *Repository) GetFolio(ctx context.Context, folioNo, transactionNo string) (*models.Folio, error) {
	var out *models.Folio
	err := r.view(func(s *state) error {
		f, ok := s.folios[folioKey{folioNo, transactionNo}]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &f
		return nil
	})
	return out, err
}

func (r *Repository) CreateFolio(ctx context.Context, folio *models.Folio) (bool, error) {
	created := false
	err := r.write("CreateFolio", func(s *state) error {
		key := folioKey{folio.FolioNo, folio.TransactionNo}
		if _, ok := s.folios[key]; ok {
			return nil
		}
		folio.CreatedAt = time.Now()
		s.folios[key] = *folio
		created = true
		return nil
	})
	return created, err
}

func (r *Repository) UpdateFolio(ctx context.Context, folio *models.Folio) error {
	return r.write("UpdateFolio", func(s *state) error {
		key := folioKey{folio.FolioNo, folio.TransactionNo}
		existing, ok := s.folios[key]
		if !ok {
			return apperrors.ErrNotFound
		}
		folio.CreatedAt = existing.CreatedAt
		folio.UpdatedAt = time.Now()
		s.folios[key] = *folio
		return nil
	})
}

func (r *Repository) NextSequence(ctx context.Context, key string) (int64, error) {
	var next int64
	err := r.write("NextSequence", func(s *state) error {
		s.sequences[key]++
		next = s.sequences[key]
		return nil
	})
	return next, err
}

// ---- reference data

func (r *Repository) readRef(fn func(ref *refState) error) error {
	r.store.refMu.RLock()
	defer r.store.refMu.RUnlock()
	return fn(&r.store.ref)
}

func (r *Repository) GetCurrency(ctx context.Context, id string) (*models.Currency, error) {
	var out *models.Currency
	err := r.readRef(func(ref *refState) error {
		c, ok := ref.currencies[id]
		if !ok {
			return apperrors.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func (r *Repository) LatestExchangeRate(ctx context.Context, currencyID string, asOf time.Time) (*models.ExchangeRate, error) {
	var out *models.ExchangeRate
	err := r.readRef(func(ref *refState) error {
		for _, rate := range ref.rates {
			if rate.CurrencyID != currencyID || rate.EffectiveDate.After(asOf) {
				continue
			}
			if out == nil || rate.EffectiveDate.After(out.EffectiveDate) {
				rate := rate
				out = &rate
			}
		}
		if out == nil {
			return apperrors.ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r *Repository) GetSetting(ctx context.Context, name string) (*models.Setting, error) {
	var out *models.Setting
	err := r.readRef(func(ref *refState) error {
		setting, ok := ref.settings[name]
		if !ok || !setting.Active {
			return apperrors.ErrNotFound
		}
		out = &setting
		return nil
	})
	return out, err
}

// ---- audit and outbound queue

func (r *Repository) CreateRoomStatusLog(ctx context.Context, log *models.RoomStatusLog) error {
	return r.write("CreateRoomStatusLog", func(s *state) error {
		log.ID = s.id()
		log.CreatedAt = time.Now()
		s.statusLogs = append(s.statusLogs, *log)
		return nil
	})
}

func (r *Repository) CreateOTAAvailability(ctx context.Context, row *models.OTAAvailability) error {
	return r.write("CreateOTAAvailability", func(s *state) error {
		row.ID = s.id()
		if row.CreatedAt.IsZero() {
			row.CreatedAt = time.Now()
		}
		s.ota = append(s.ota, *row)
		return nil
	})
}

func (r *Repository) PurgeOTAAvailability(ctx context.Context, olderThan time.Time) (int64, error) {
	var n int64
	err := r.write("PurgeOTAAvailability", func(s *state) error {
		kept := s.ota[:0:0]
		for _, row := range s.ota {
			if row.Processed || row.CreatedAt.Before(olderThan) {
				n++
				continue
			}
			kept = append(kept, row)
		}
		s.ota = kept
		return nil
	})
	return n, err
}
