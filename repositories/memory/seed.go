package memory

import (
	"pms/models"
)

// Seeding and inspection helpers for collaborator-owned data.

func (r *Repository) AddRoomType(rt models.RoomType) {
	_ = r.view(func(s *state) error {
		s.roomTypes[rt.ID] = rt
		return nil
	})
}

func (r *Repository) AddRoom(room models.Room) {
	_ = r.view(func(s *state) error {
		s.rooms[room.RoomNo] = room
		return nil
	})
}

func (r *Repository) AddReservation(res models.Reservation) {
	_ = r.view(func(s *state) error {
		s.reservations[res.ReservationNo] = res
		return nil
	})
}

func (r *Repository) AddTransaction(t models.Transaction) {
	_ = r.view(func(s *state) error {
		s.transactions[t.TransactionNo] = t
		return nil
	})
}

func (r *Repository) AddStock(records ...models.StockRecord) {
	_ = r.view(func(s *state) error {
		for _, rec := range records {
			rec.ID = s.id()
			s.stock = append(s.stock, rec)
		}
		return nil
	})
}

func (r *Repository) AddBlock(b models.Block) {
	_ = r.view(func(s *state) error {
		b.ID = s.id()
		s.blocks = append(s.blocks, b)
		return nil
	})
}

func (r *Repository) AddAssignment(m models.MultiRoomAssignment) {
	_ = r.view(func(s *state) error {
		m.ID = s.id()
		s.assignments = append(s.assignments, m)
		return nil
	})
}

func (r *Repository) writeRef(fn func(ref *refState)) {
	r.store.refMu.Lock()
	defer r.store.refMu.Unlock()
	fn(&r.store.ref)
}

func (r *Repository) AddCurrency(c models.Currency) {
	r.writeRef(func(ref *refState) {
		ref.currencies[c.ID] = c
	})
}

func (r *Repository) AddExchangeRate(rate models.ExchangeRate) {
	r.writeRef(func(ref *refState) {
		rate.ID = uint(len(ref.rates) + 1)
		ref.rates = append(ref.rates, rate)
	})
}

func (r *Repository) SetSetting(name, value string) {
	r.writeRef(func(ref *refState) {
		ref.settings[name] = models.Setting{Name: name, Value: value, Active: true}
	})
}

func (r *Repository) AddChargeLine(line models.ChargeLine) {
	_ = r.view(func(s *state) error {
		line.ID = s.id()
		s.charges = append(s.charges, line)
		return nil
	})
}

func (r *Repository) RoomStatusLogs() []models.RoomStatusLog {
	var out []models.RoomStatusLog
	_ = r.view(func(s *state) error {
		out = append(out, s.statusLogs...)
		return nil
	})
	return out
}

func (r *Repository) OTAAvailabilities() []models.OTAAvailability {
	var out []models.OTAAvailability
	_ = r.view(func(s *state) error {
		out = append(out, s.ota...)
		return nil
	})
	return out
}

func (r *Repository) StockRecords() []models.StockRecord {
	var out []models.StockRecord
	_ = r.view(func(s *state) error {
		out = append(out, s.stock...)
		return nil
	})
	return out
}
