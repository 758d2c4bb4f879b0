package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"floodrelief/internal/platform/postgres"
	"floodrelief/internal/records/models"
	id "floodrelief/pkg/domain"
	"floodrelief/pkg/platform/sentinel"
)

var searchDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "floodrelief_item_search_duration_ms",
	Help:    "Latency of item searches in milliseconds",
	Buckets: []float64{1, 2.5, 5, 10, 25, 50, 100, 250},
})

// PostgresStore persists records in PostgreSQL. National id uniqueness is
// enforced by donations_national_id_key and help_requests_national_id_key;
// items go with their donation through ON DELETE CASCADE.
type PostgresStore struct {
	db *sql.DB
	q  postgres.DBTX
}

// NewPostgres constructs a PostgreSQL-backed record store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

// RunInTx hands fn a store bound to a single transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(store Store) error) error {
	return postgres.RunInTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&PostgresStore{db: s.db, q: tx})
	})
}

func translateWriteError(err error, what string) error {
	if _, ok := postgres.UniqueViolation(err); ok {
		return sentinel.Conflict("national_id")
	}
	return fmt.Errorf("%s: %w", what, err)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullAccountID(a *id.AccountID) sql.NullInt64 {
	if a == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*a), Valid: true}
}

func accountIDFrom(n sql.NullInt64) *id.AccountID {
	if !n.Valid {
		return nil
	}
	a := id.AccountID(n.Int64)
	return &a
}

func checkAffected(res sql.Result) error {
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Donations

const donationColumns = `id, owner_account_id, national_id, name, phone, whatsapp,
	street, number, postal_code, district, city, state, can_deliver, available_until, created_at`

func (s *PostgresStore) CreateDonation(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donations (owner_account_id, national_id, name, phone, whatsapp,
			street, number, postal_code, district, city, state, can_deliver, available_until, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	var newID int64
	err := s.q.QueryRowContext(ctx, query,
		nullAccountID(d.OwnerAccountID), string(d.NationalID), d.Name, d.Phone, d.WhatsApp,
		d.Address.Street, d.Address.Number, d.Address.PostalCode, d.Address.District, d.Address.City, d.Address.State,
		d.CanDeliver, d.AvailableUntil, d.CreatedAt,
	).Scan(&newID)
	if err != nil {
		return translateWriteError(err, "create donation")
	}
	d.ID = id.DonationID(newID)
	return s.insertItems(ctx, d)
}

func (s *PostgresStore) insertItems(ctx context.Context, d *models.Donation) error {
	query := `
		INSERT INTO donation_items (donation_id, name, quantity, description, photo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	for i := range d.Items {
		item := &d.Items[i]
		item.DonationID = d.ID
		if item.CreatedAt.IsZero() {
			item.CreatedAt = d.CreatedAt
		}
		var itemID int64
		if err := s.q.QueryRowContext(ctx, query,
			int64(d.ID), item.Name, item.Quantity, nullString(item.Description), item.Photo, item.CreatedAt,
		).Scan(&itemID); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		item.ID = id.ItemID(itemID)
	}
	return nil
}

func (s *PostgresStore) UpdateDonation(ctx context.Context, d *models.Donation) error {
	query := `
		UPDATE donations SET owner_account_id = $2, national_id = $3, name = $4, phone = $5, whatsapp = $6,
			street = $7, number = $8, postal_code = $9, district = $10, city = $11, state = $12,
			can_deliver = $13, available_until = $14
		WHERE id = $1
	`
	res, err := s.q.ExecContext(ctx, query,
		int64(d.ID), nullAccountID(d.OwnerAccountID), string(d.NationalID), d.Name, d.Phone, d.WhatsApp,
		d.Address.Street, d.Address.Number, d.Address.PostalCode, d.Address.District, d.Address.City, d.Address.State,
		d.CanDeliver, d.AvailableUntil,
	)
	if err != nil {
		return translateWriteError(err, "update donation")
	}
	if err := checkAffected(res); err != nil {
		return err
	}
	if _, err := s.q.ExecContext(ctx, `DELETE FROM donation_items WHERE donation_id = $1`, int64(d.ID)); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	return s.insertItems(ctx, d)
}

func (s *PostgresStore) FindDonation(ctx context.Context, donationID id.DonationID) (*models.Donation, error) {
	d, err := scanDonation(s.q.QueryRowContext(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, int64(donationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find donation: %w", err)
	}
	items, err := s.listItems(ctx, `WHERE donation_id = $1`, int64(donationID))
	if err != nil {
		return nil, err
	}
	d.Items = items[d.ID]
	return d, nil
}

func (s *PostgresStore) ListDonations(ctx context.Context) ([]*models.Donation, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+donationColumns+` FROM donations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Donation, 0)
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan donation: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	items, err := s.listItems(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, d := range out {
		d.Items = items[d.ID]
	}
	return out, nil
}

// DeleteDonation relies on the foreign key cascade to drop the items.
func (s *PostgresStore) DeleteDonation(ctx context.Context, donationID id.DonationID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM donations WHERE id = $1`, int64(donationID))
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	return checkAffected(res)
}

const itemColumns = `id, donation_id, name, quantity, description, photo, created_at`

func (s *PostgresStore) listItems(ctx context.Context, where string, args ...any) (map[id.DonationID][]models.Item, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+itemColumns+` FROM donation_items `+where+` ORDER BY donation_id, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := make(map[id.DonationID][]models.Item)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out[item.DonationID] = append(out[item.DonationID], *item)
	}
	return out, rows.Err()
}

func (s *PostgresStore) FindItem(ctx context.Context, itemID id.ItemID) (*models.Item, error) {
	item, err := scanItem(s.q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM donation_items WHERE id = $1`, int64(itemID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find item: %w", err)
	}
	return item, nil
}

func scanDonation(row rowScanner) (*models.Donation, error) {
	var (
		d          models.Donation
		rawID      int64
		owner      sql.NullInt64
		nationalID string
	)
	if err := row.Scan(&rawID, &owner, &nationalID, &d.Name, &d.Phone, &d.WhatsApp,
		&d.Address.Street, &d.Address.Number, &d.Address.PostalCode, &d.Address.District, &d.Address.City, &d.Address.State,
		&d.CanDeliver, &d.AvailableUntil, &d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.ID = id.DonationID(rawID)
	d.OwnerAccountID = accountIDFrom(owner)
	d.NationalID = id.NationalID(nationalID)
	return &d, nil
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item        models.Item
		rawID       int64
		donationID  int64
		description sql.NullString
	)
	if err := row.Scan(&rawID, &donationID, &item.Name, &item.Quantity, &description, &item.Photo, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.ID = id.ItemID(rawID)
	item.DonationID = id.DonationID(donationID)
	item.Description = description.String
	return &item, nil
}

// Help requests

const helpColumns = `id, owner_account_id, national_id, name, phone, whatsapp,
	street, number, postal_code, district, city, state, household_size, can_pick_up, notes, created_at`

func (s *PostgresStore) CreateHelpRequest(ctx context.Context, h *models.HelpRequest) error {
	query := `
		INSERT INTO help_requests (owner_account_id, national_id, name, phone, whatsapp,
			street, number, postal_code, district, city, state, household_size, can_pick_up, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	var newID int64
	err := s.q.QueryRowContext(ctx, query,
		nullAccountID(h.OwnerAccountID), string(h.NationalID), h.Name, h.Phone, h.WhatsApp,
		h.Address.Street, h.Address.Number, h.Address.PostalCode, h.Address.District, h.Address.City, h.Address.State,
		h.HouseholdSize, h.CanPickUp, nullString(h.Notes), h.CreatedAt,
	).Scan(&newID)
	if err != nil {
		return translateWriteError(err, "create help request")
	}
	h.ID = id.HelpRequestID(newID)
	return nil
}

func (s *PostgresStore) UpdateHelpRequest(ctx context.Context, h *models.HelpRequest) error {
	query := `
		UPDATE help_requests SET owner_account_id = $2, national_id = $3, name = $4, phone = $5, whatsapp = $6,
			street = $7, number = $8, postal_code = $9, district = $10, city = $11, state = $12,
			household_size = $13, can_pick_up = $14, notes = $15
		WHERE id = $1
	`
	res, err := s.q.ExecContext(ctx, query,
		int64(h.ID), nullAccountID(h.OwnerAccountID), string(h.NationalID), h.Name, h.Phone, h.WhatsApp,
		h.Address.Street, h.Address.Number, h.Address.PostalCode, h.Address.District, h.Address.City, h.Address.State,
		h.HouseholdSize, h.CanPickUp, nullString(h.Notes),
	)
	if err != nil {
		return translateWriteError(err, "update help request")
	}
	return checkAffected(res)
}

func (s *PostgresStore) FindHelpRequest(ctx context.Context, requestID id.HelpRequestID) (*models.HelpRequest, error) {
	h, err := scanHelpRequest(s.q.QueryRowContext(ctx, `SELECT `+helpColumns+` FROM help_requests WHERE id = $1`, int64(requestID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find help request: %w", err)
	}
	return h, nil
}

func (s *PostgresStore) ListHelpRequests(ctx context.Context) ([]*models.HelpRequest, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+helpColumns+` FROM help_requests ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list help requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.HelpRequest, 0)
	for rows.Next() {
		h, err := scanHelpRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan help request: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteHelpRequest(ctx context.Context, requestID id.HelpRequestID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM help_requests WHERE id = $1`, int64(requestID))
	if err != nil {
		return fmt.Errorf("delete help request: %w", err)
	}
	return checkAffected(res)
}

func scanHelpRequest(row rowScanner) (*models.HelpRequest, error) {
	var (
		h          models.HelpRequest
		rawID      int64
		owner      sql.NullInt64
		nationalID string
		notes      sql.NullString
	)
	if err := row.Scan(&rawID, &owner, &nationalID, &h.Name, &h.Phone, &h.WhatsApp,
		&h.Address.Street, &h.Address.Number, &h.Address.PostalCode, &h.Address.District, &h.Address.City, &h.Address.State,
		&h.HouseholdSize, &h.CanPickUp, &notes, &h.CreatedAt,
	); err != nil {
		return nil, err
	}
	h.ID = id.HelpRequestID(rawID)
	h.OwnerAccountID = accountIDFrom(owner)
	h.NationalID = id.NationalID(nationalID)
	h.Notes = notes.String
	return &h, nil
}

// Pets

const petColumns = `id, owner_account_id, name, species, breed, description, status, location, contact, photo, created_at`

func (s *PostgresStore) CreatePet(ctx context.Context, p *models.PetListing) error {
	query := `
		INSERT INTO pet_listings (owner_account_id, name, species, breed, description, status, location, contact, photo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`
	var newID int64
	err := s.q.QueryRowContext(ctx, query,
		nullAccountID(p.OwnerAccountID), nullString(p.Name), p.Species, nullString(p.Breed), p.Description,
		string(p.Status), p.Location, p.Contact, p.Photo, p.CreatedAt,
	).Scan(&newID)
	if err != nil {
		return fmt.Errorf("create pet: %w", err)
	}
	p.ID = id.PetID(newID)
	return nil
}

func (s *PostgresStore) UpdatePet(ctx context.Context, p *models.PetListing) error {
	query := `
		UPDATE pet_listings SET owner_account_id = $2, name = $3, species = $4, breed = $5, description = $6,
			status = $7, location = $8, contact = $9, photo = $10
		WHERE id = $1
	`
	res, err := s.q.ExecContext(ctx, query,
		int64(p.ID), nullAccountID(p.OwnerAccountID), nullString(p.Name), p.Species, nullString(p.Breed), p.Description,
		string(p.Status), p.Location, p.Contact, p.Photo,
	)
	if err != nil {
		return fmt.Errorf("update pet: %w", err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) FindPet(ctx context.Context, petID id.PetID) (*models.PetListing, error) {
	p, err := scanPet(s.q.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pet_listings WHERE id = $1`, int64(petID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find pet: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPets(ctx context.Context) ([]*models.PetListing, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+petColumns+` FROM pet_listings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", err)
	}
	defer rows.Close()

	out := make([]*models.PetListing, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pet: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeletePet(ctx context.Context, petID id.PetID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM pet_listings WHERE id = $1`, int64(petID))
	if err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	return checkAffected(res)
}

func scanPet(row rowScanner) (*models.PetListing, error) {
	var (
		p      models.PetListing
		rawID  int64
		owner  sql.NullInt64
		name   sql.NullString
		breed  sql.NullString
		status string
	)
	if err := row.Scan(&rawID, &owner, &name, &p.Species, &breed, &p.Description, &status,
		&p.Location, &p.Contact, &p.Photo, &p.CreatedAt,
	); err != nil {
		return nil, err
	}
	p.ID = id.PetID(rawID)
	p.OwnerAccountID = accountIDFrom(owner)
	p.Name = name.String
	p.Breed = breed.String
	p.Status = models.PetStatus(status)
	return &p, nil
}

// Cross-table queries

func (s *PostgresStore) IsNationalIDTaken(ctx context.Context, nationalID id.NationalID, kind models.Kind) (bool, error) {
	var table string
	switch kind {
	case models.KindDonation:
		table = "donations"
	case models.KindHelpRequest:
		table = "help_requests"
	default:
		return false, nil
	}
	var taken bool
	err := s.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE national_id = $1)`, string(nationalID),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check national id: %w", err)
	}
	return taken, nil
}

// SearchItems orders with the C collation so ties break the same way as the
// in-memory store.
func (s *PostgresStore) SearchItems(ctx context.Context, query string, availability models.Availability, today time.Time) ([]models.ItemMatch, error) {
	start := time.Now()
	defer func() {
		searchDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	var (
		where []string
		args  []any
	)
	if needle := strings.TrimSpace(query); needle != "" {
		args = append(args, "%"+escapeLike(strings.ToLower(needle))+"%")
		where = append(where, fmt.Sprintf(`(lower(i.name) LIKE $%d OR lower(coalesce(i.description, '')) LIKE $%d)`, len(args), len(args)))
	}
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	switch availability {
	case models.AvailabilityAvailable:
		args = append(args, day)
		where = append(where, fmt.Sprintf(`d.available_until >= $%d::date`, len(args)))
	case models.AvailabilityExpired:
		args = append(args, day)
		where = append(where, fmt.Sprintf(`d.available_until < $%d::date`, len(args)))
	}

	sqlQuery := `
		SELECT i.id, i.donation_id, i.name, i.quantity, i.description, i.photo, i.created_at,
			d.id, d.owner_account_id, d.national_id, d.name, d.phone, d.whatsapp,
			d.street, d.number, d.postal_code, d.district, d.city, d.state, d.can_deliver, d.available_until, d.created_at
		FROM donation_items i
		JOIN donations d ON d.id = i.donation_id
	`
	if len(where) > 0 {
		sqlQuery += ` WHERE ` + strings.Join(where, " AND ")
	}
	sqlQuery += ` ORDER BY lower(i.name) COLLATE "C", i.id`

	rows, err := s.q.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	defer rows.Close()

	out := make([]models.ItemMatch, 0)
	for rows.Next() {
		var (
			m           models.ItemMatch
			itemID      int64
			donationID  int64
			description sql.NullString
			dID         int64
			owner       sql.NullInt64
			nationalID  string
			d           = &m.Donation
		)
		if err := rows.Scan(&itemID, &donationID, &m.Item.Name, &m.Item.Quantity, &description, &m.Item.Photo, &m.Item.CreatedAt,
			&dID, &owner, &nationalID, &d.Name, &d.Phone, &d.WhatsApp,
			&d.Address.Street, &d.Address.Number, &d.Address.PostalCode, &d.Address.District, &d.Address.City, &d.Address.State,
			&d.CanDeliver, &d.AvailableUntil, &d.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan item match: %w", err)
		}
		m.Item.ID = id.ItemID(itemID)
		m.Item.DonationID = id.DonationID(donationID)
		m.Item.Description = description.String
		d.ID = id.DonationID(dID)
		d.OwnerAccountID = accountIDFrom(owner)
		d.NationalID = id.NationalID(nationalID)
		out = append(out, m)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *PostgresStore) Counts(ctx context.Context) (models.Counts, error) {
	var c models.Counts
	err := s.q.QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM donations),
			(SELECT count(*) FROM donation_items),
			(SELECT count(*) FROM help_requests),
			(SELECT count(*) FROM pet_listings)
	`).Scan(&c.Donations, &c.Items, &c.HelpRequests, &c.Pets)
	if err != nil {
		return models.Counts{}, fmt.Errorf("count records: %w", err)
	}
	return c, nil
}
