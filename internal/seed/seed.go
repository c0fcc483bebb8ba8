package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"time"

	"restoran-analytics/internal/analytics"
	"restoran-analytics/internal/models"
	"restoran-analytics/internal/orderstore"

	"github.com/google/uuid"
	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultWaiterPassword = "waiter12345"

	deliveryFee   = 10000
	containerCost = 2000
	batchSize     = 200
)

type Options struct {
	Orders  int
	Days    int
	Waiters int
	Seed    int64
	Now     time.Time
	// Progress receives a progress bar; nil disables it.
	Progress io.Writer
}

// Dataset is a generated demo restaurant.
type Dataset struct {
	Categories []models.Category
	Items      []models.MenuItem
	Waiters    []models.User
	Orders     []models.Order
}

// Generator produces demo data. Content is deterministic for a given seed
// and clock; ids are too once SeededIDs is called.
type Generator struct {
	fake  faker.Faker
	rng   *rand.Rand
	now   time.Time
	days  int
	newID func() string
}

func NewGenerator(seed int64, now time.Time, days int) *Generator {
	if now.IsZero() {
		now = time.Now()
	}
	if days <= 0 {
		days = 90
	}
	return &Generator{
		fake:  faker.NewWithSeed(rand.NewSource(seed)),
		rng:   rand.New(rand.NewSource(seed)),
		now:   now,
		days:  days,
		newID: cuid.New,
	}
}

// SeededIDs derives ids from seed instead of cuid. Ids then repeat across
// runs, so this is only for offline datasets, never for a shared database.
func (g *Generator) SeededIDs(seed int64) *Generator {
	src := rand.New(rand.NewSource(seed))
	g.newID = func() string {
		return uuid.Must(uuid.NewRandomFromReader(src)).String()
	}
	return g
}

func (g *Generator) Menu() ([]models.Category, []models.MenuItem) {
	var (
		categories []models.Category
		items      []models.MenuItem
	)
	for i, mc := range demoMenu {
		cat := models.Category{ID: g.newID(), Name: mc.Name, SortOrder: i + 1}
		categories = append(categories, cat)
		for _, d := range mc.Items {
			items = append(items, models.MenuItem{
				ID:         g.newID(),
				Name:       d.Name,
				CategoryID: cat.ID,
				Price:      decimal.NewFromInt(d.Price),
				Available:  true,
			})
		}
	}
	return categories, items
}

func (g *Generator) Waiters(n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultWaiterPassword), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hashing waiter password: %w", err)
	}
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		name := g.fake.Person().FirstName() + " " + g.fake.Person().LastName()
		users = append(users, models.User{
			Name:         name,
			Email:        fmt.Sprintf("waiter.%s@restoran.local", emailTag(g.newID())),
			PasswordHash: string(hash),
			Role:         models.RoleWaiter,
		})
	}
	return users, nil
}

func (g *Generator) orderType() analytics.OrderType {
	switch r := g.rng.Intn(100); {
	case r < 60:
		return analytics.OrderTypeTable
	case r < 85:
		return analytics.OrderTypeSaboy
	default:
		return analytics.OrderTypeDelivery
	}
}

// busy hours are weighted towards lunch and dinner
var hourWeights = []struct{ hour, weight int }{
	{9, 2}, {10, 3}, {11, 6}, {12, 10}, {13, 10}, {14, 6}, {15, 3},
	{16, 3}, {17, 5}, {18, 8}, {19, 10}, {20, 9}, {21, 6}, {22, 3},
}

func (g *Generator) createdAt() time.Time {
	total := 0
	for _, hw := range hourWeights {
		total += hw.weight
	}
	pick := g.rng.Intn(total)
	hour := hourWeights[len(hourWeights)-1].hour
	for _, hw := range hourWeights {
		if pick < hw.weight {
			hour = hw.hour
			break
		}
		pick -= hw.weight
	}

	day := g.now.AddDate(0, 0, -g.rng.Intn(g.days))
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, g.rng.Intn(60), g.rng.Intn(60), 0, g.now.Location())
	if t.After(g.now) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func (g *Generator) status(t analytics.OrderType, created time.Time) analytics.OrderStatus {
	if g.now.Sub(created) < 2*time.Hour {
		return []analytics.OrderStatus{analytics.StatusPending, analytics.StatusPreparing, analytics.StatusReady}[g.rng.Intn(3)]
	}
	switch r := g.rng.Intn(100); {
	case r < 5:
		return analytics.StatusCancelled
	case r < 15:
		if t == analytics.OrderTypeDelivery {
			return analytics.StatusDelivered
		}
		return analytics.StatusCompleted
	default:
		return analytics.StatusPaid
	}
}

// encodeTime renders t in one of the shapes stored orders carry. A nil
// result means the key is left out of the payload.
func (g *Generator) encodeTime(t time.Time) any {
	switch g.rng.Intn(10) {
	case 0, 1, 2, 3:
		return t.UTC().Format(time.RFC3339Nano)
	case 4, 5:
		return map[string]any{"seconds": t.Unix(), "nanoseconds": t.Nanosecond()}
	case 6:
		return map[string]any{"_seconds": t.Unix(), "_nanoseconds": t.Nanosecond()}
	case 7:
		return t.Format("2006-01-02 15:04:05")
	case 8:
		return t.Format(time.RFC1123Z)
	default:
		return nil
	}
}

// Order builds one order from the menu. waiterKeys may be empty.
func (g *Generator) Order(items []models.MenuItem, waiterKeys []string) (models.Order, error) {
	typ := g.orderType()
	created := g.createdAt()
	status := g.status(typ, created)

	var (
		lines    []map[string]any
		subtotal int64
	)
	for n := 1 + g.rng.Intn(5); n > 0; n-- {
		it := items[g.rng.Intn(len(items))]
		qty := 1 + g.rng.Intn(3)
		price := it.Price.IntPart()
		line := map[string]any{"name": it.Name, "price": price, "quantity": qty}
		if legacy, ok := legacyNames[it.Name]; ok && g.rng.Intn(4) == 0 {
			line["name"] = legacy
		} else if g.rng.Intn(10) < 7 {
			line["categoryId"] = it.CategoryID
		}
		lines = append(lines, line)
		subtotal += price * int64(qty)
	}

	payload := map[string]any{
		"id":        g.newID(),
		"orderType": string(typ),
		"status":    string(status),
		"items":     lines,
		"subtotal":  subtotal,
	}
	total := subtotal
	switch typ {
	case analytics.OrderTypeDelivery:
		payload["deliveryFee"] = deliveryFee
		payload["customerName"] = g.fake.Person().Name()
		payload["phone"] = g.fake.Phone().Number()
		payload["address"] = g.fake.Address().StreetAddress()
		total += deliveryFee
	case analytics.OrderTypeSaboy:
		payload["containerCost"] = containerCost
		payload["customerName"] = g.fake.Person().FirstName()
		total += containerCost
	}
	// some older records carry no total and are priced from their parts
	if g.rng.Intn(10) != 0 {
		payload["total"] = total
	}

	order := models.Order{
		ID:        payload["id"].(string),
		OrderType: string(typ),
		Status:    string(status),
		Total:     decimal.NewFromInt(total),
		CreatedAt: created,
	}
	if name, ok := payload["customerName"].(string); ok {
		order.CustomerName = name
	}
	if typ == analytics.OrderTypeTable && len(waiterKeys) > 0 {
		key := waiterKeys[g.rng.Intn(len(waiterKeys))]
		payload["waiterId"] = key
		order.WaiterID = &key
	}
	if v := g.encodeTime(created); v != nil {
		payload["createdAt"] = v
	}
	if status == analytics.StatusPaid {
		paid := created.Add(time.Duration(20+g.rng.Intn(70)) * time.Minute)
		if paid.After(g.now) {
			paid = g.now
		}
		order.PaidAt = &paid
		if v := g.encodeTime(paid); v != nil {
			payload["paidAt"] = v
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return models.Order{}, fmt.Errorf("encoding order payload: %w", err)
	}
	order.Payload = datatypes.JSON(raw)
	return order, nil
}

// Generate builds a complete dataset without touching a database. Waiter
// keys are positional, so the dataset is only meaningful offline. The same
// options always produce the same dataset.
func Generate(opts Options) (*Dataset, error) {
	g := NewGenerator(opts.Seed, opts.Now, opts.Days).SeededIDs(opts.Seed)
	ds := &Dataset{}
	ds.Categories, ds.Items = g.Menu()

	var err error
	if ds.Waiters, err = g.Waiters(opts.Waiters); err != nil {
		return nil, err
	}
	keys := make([]string, len(ds.Waiters))
	for i := range ds.Waiters {
		ds.Waiters[i].ID = uint(i + 1)
		keys[i] = ds.Waiters[i].WaiterKey()
	}

	bar := newBar(opts.Progress, opts.Orders)
	for i := 0; i < opts.Orders; i++ {
		o, err := g.Order(ds.Items, keys)
		if err != nil {
			return nil, err
		}
		ds.Orders = append(ds.Orders, o)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return ds, nil
}

// Snapshot converts the dataset into engine input exactly as the Postgres
// order source would read it back.
func (d *Dataset) Snapshot() analytics.Snapshot {
	var s analytics.Snapshot
	for _, c := range d.Categories {
		s.Categories = append(s.Categories, analytics.Category{ID: c.ID, Name: c.Name})
	}
	for _, it := range d.Items {
		s.Catalog = append(s.Catalog, analytics.MenuCatalogEntry{Name: it.Name, CategoryID: it.CategoryID})
	}
	for _, w := range d.Waiters {
		s.Waiters = append(s.Waiters, analytics.Waiter{ID: w.WaiterKey(), Name: w.Name, Role: string(w.Role)})
	}
	for _, o := range d.Orders {
		s.Orders = append(s.Orders, orderstore.RecordFromRow(o))
	}
	return s
}

// Insert writes a fresh demo restaurant into db: menu and waiters first, so
// orders can reference the waiter ids the database assigns.
func Insert(ctx context.Context, db *gorm.DB, opts Options) (*Dataset, error) {
	g := NewGenerator(opts.Seed, opts.Now, opts.Days)
	ds := &Dataset{}
	ds.Categories, ds.Items = g.Menu()

	var err error
	if ds.Waiters, err = g.Waiters(opts.Waiters); err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ds.Categories).Error; err != nil {
			return fmt.Errorf("categories: %w", err)
		}
		if err := tx.Create(&ds.Items).Error; err != nil {
			return fmt.Errorf("menu items: %w", err)
		}
		if len(ds.Waiters) > 0 {
			if err := tx.Create(&ds.Waiters).Error; err != nil {
				return fmt.Errorf("waiters: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("seeding menu: %w", err)
	}

	keys := make([]string, len(ds.Waiters))
	for i, w := range ds.Waiters {
		keys[i] = w.WaiterKey()
	}

	bar := newBar(opts.Progress, opts.Orders)
	for done := 0; done < opts.Orders; {
		n := min(batchSize, opts.Orders-done)
		batch := make([]models.Order, 0, n)
		for i := 0; i < n; i++ {
			o, err := g.Order(ds.Items, keys)
			if err != nil {
				return nil, err
			}
			batch = append(batch, o)
		}
		if err := db.WithContext(ctx).Create(&batch).Error; err != nil {
			return nil, fmt.Errorf("seeding orders: %w", err)
		}
		ds.Orders = append(ds.Orders, batch...)
		done += n
		if bar != nil {
			_ = bar.Add(n)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return ds, nil
}

func newBar(w io.Writer, n int) *progressbar.ProgressBar {
	if w == nil || n <= 0 {
		return nil
	}
	return progressbar.NewOptions(n,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("orders"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// emailTag keeps the tail of an id, the part that varies between ids.
func emailTag(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

func (d *Dataset) Summary() string {
	return fmt.Sprintf("%d categories, %d menu items, %d waiters, %d orders",
		len(d.Categories), len(d.Items), len(d.Waiters), len(d.Orders))
}
