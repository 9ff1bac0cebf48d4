package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cbcoder/dealer-webapp/internal/model"
)

const carColumns = "car_id, make, model, color, reg_number, chassis_number, key_number, car_status, buyer_name, handover_date, comments, workshop_statuses, valeter_statuses, created_by, date_created, date_updated"

// CarRepo mirrors the `cars` table.  Workshop and valeter status sets are
// stored comma-joined in a single column each.
type CarRepo struct{ DB *sql.DB }

func NewCarRepo(db *sql.DB) *CarRepo { return &CarRepo{DB: db} }

// ExistsByRegNumber reports whether a car with the exact plate exists.
func (r *CarRepo) ExistsByRegNumber(ctx context.Context, reg string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cars WHERE reg_number=?", reg).Scan(&n)
	return n > 0, err
}

// ExistsByChassisNumber reports whether a car with the exact chassis
// number exists.
func (r *CarRepo) ExistsByChassisNumber(ctx context.Context, chassis string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM cars WHERE chassis_number=?", chassis).Scan(&n)
	return n > 0, err
}

// Create inserts a car in STOCK status and returns its id.
func (r *CarRepo) Create(ctx context.Context, c *model.Car) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO cars (make, model, color, reg_number, chassis_number, key_number, car_status, comments, workshop_statuses, valeter_statuses, created_by, date_created) VALUES (?,?,?,?,?,?,?,?,?,?,?,NOW())",
		c.Make, c.Model, c.Color, c.RegNumber, c.ChassisNumber, c.KeyNumber,
		model.CarStatusStock, c.Comments,
		joinSet(c.WorkshopStatuses), joinSet(c.ValeterStatuses), c.CreatedBy)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrCarExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByID fetches a car by id.
func (r *CarRepo) GetByID(ctx context.Context, id uint64) (model.Car, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+carColumns+" FROM cars WHERE car_id=? LIMIT 1", id)
	c, err := scanCar(row)
	if err == sql.ErrNoRows {
		return model.Car{}, ErrCarNotFound
	}
	return c, err
}

// UpdateToSold flips a car to SOLD and records the handover details.  The
// acting user becomes the car's last editor via created_by.
func (r *CarRepo) UpdateToSold(ctx context.Context, id uint64, buyerName string, handover *time.Time, workshop, valeter []string, comments string, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cars SET car_status=?, buyer_name=?, handover_date=?, workshop_statuses=?, valeter_statuses=?, comments=?, created_by=?, date_updated=NOW() WHERE car_id=?",
		model.CarStatusSold, buyerName, handover, joinSet(workshop), joinSet(valeter), comments, userID, id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrCarNotFound)
}

// Delete removes a car row.
func (r *CarRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM cars WHERE car_id=?", id)
	if err != nil {
		return err
	}
	return requireRow(res, ErrCarNotFound)
}

// ListAll returns one page over every car plus the total count.
func (r *CarRepo) ListAll(ctx context.Context, page, size int) ([]model.Car, int64, error) {
	return r.list(ctx, "", nil, page, size)
}

// ListByStatus returns one page of cars in the given status.
func (r *CarRepo) ListByStatus(ctx context.Context, status string, page, size int) ([]model.Car, int64, error) {
	return r.list(ctx, "WHERE car_status=?", []any{status}, page, size)
}

// FindByModel returns one page of cars whose model contains the fragment,
// case-insensitively.
func (r *CarRepo) FindByModel(ctx context.Context, fragment string, page, size int) ([]model.Car, int64, error) {
	return r.list(ctx, "WHERE LOWER(model) LIKE ?", []any{contains(fragment)}, page, size)
}

func (r *CarRepo) list(ctx context.Context, where string, args []any, page, size int) ([]model.Car, int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, strings.TrimSpace("SELECT COUNT(*) FROM cars "+where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := strings.TrimSpace("SELECT "+carColumns+" FROM cars "+where) + " ORDER BY car_id LIMIT ? OFFSET ?"
	rows, err := r.DB.QueryContext(ctx, query, append(args, size, page*size)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	cars, err := collectCars(rows)
	return cars, total, err
}

// FindByRegNumber returns cars whose plate contains the fragment.
func (r *CarRepo) FindByRegNumber(ctx context.Context, fragment string) ([]model.Car, error) {
	return r.find(ctx, "LOWER(reg_number) LIKE ?", contains(fragment))
}

// FindByChassisNumber returns cars whose chassis number contains the
// fragment.
func (r *CarRepo) FindByChassisNumber(ctx context.Context, fragment string) ([]model.Car, error) {
	return r.find(ctx, "LOWER(chassis_number) LIKE ?", contains(fragment))
}

// FindByBuyerName returns sold cars whose buyer name contains the
// fragment.
func (r *CarRepo) FindByBuyerName(ctx context.Context, fragment string) ([]model.Car, error) {
	return r.find(ctx, "LOWER(buyer_name) LIKE ?", contains(fragment))
}

func (r *CarRepo) find(ctx context.Context, cond string, arg any) ([]model.Car, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+carColumns+" FROM cars WHERE "+cond+" ORDER BY car_id", arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCars(rows)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanCar(row rowScanner) (model.Car, error) {
	var c model.Car
	var buyer, comments, workshop, valeter sql.NullString
	var handover, updated sql.NullTime
	err := row.Scan(&c.ID, &c.Make, &c.Model, &c.Color, &c.RegNumber, &c.ChassisNumber,
		&c.KeyNumber, &c.Status, &buyer, &handover, &comments, &workshop, &valeter,
		&c.CreatedBy, &c.DateCreated, &updated)
	if err != nil {
		return model.Car{}, err
	}
	c.BuyerName = buyer.String
	c.Comments = comments.String
	c.WorkshopStatuses = splitSet(workshop.String)
	c.ValeterStatuses = splitSet(valeter.String)
	if handover.Valid {
		t := handover.Time
		c.HandoverDate = &t
	}
	if updated.Valid {
		c.DateUpdated = updated.Time
	}
	return c, nil
}

func collectCars(rows *sql.Rows) ([]model.Car, error) {
	var cars []model.Car
	for rows.Next() {
		c, err := scanCar(rows)
		if err != nil {
			return nil, err
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func joinSet(values []string) string { return strings.Join(values, ",") }

func splitSet(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func contains(fragment string) string {
	return "%" + strings.ToLower(strings.TrimSpace(fragment)) + "%"
}
