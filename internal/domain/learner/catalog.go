package learner

// ══════════════════════════════════════════════════════════════════════════════
// PLAN CATALOG
// ══════════════════════════════════════════════════════════════════════════════

// PlanName представляет название тарифного плана.
type PlanName string

// Тарифные планы платформы.
const (
	// PlanMonthly - помесячная подписка.
	PlanMonthly PlanName = "monthly"
	// PlanYearly - годовая подписка.
	PlanYearly PlanName = "yearly"
	// PlanLifetime - пожизненный доступ.
	PlanLifetime PlanName = "lifetime"
)

// PlanInfo описывает тарифный план.
type PlanInfo struct {
	// Name - машинное имя плана.
	Name PlanName

	// DisplayName - отображаемое название.
	DisplayName string

	// PriceCents - цена в центах.
	PriceCents int

	// DurationDays - длительность в днях (0 для lifetime).
	DurationDays int
}

// IsLifetime возвращает true для пожизненного плана.
func (p PlanInfo) IsLifetime() bool {
	return p.Name == PlanLifetime
}

// PlanCatalog - статический справочник тарифных планов.
// Внедряется при старте; цены и сроки не меняются на лету.
type PlanCatalog struct {
	plans   map[PlanName]PlanInfo
	ordered []PlanName
}

// NewPlanCatalog создаёт каталог из списка планов.
func NewPlanCatalog(plans []PlanInfo) PlanCatalog {
	byName := make(map[PlanName]PlanInfo, len(plans))
	ordered := make([]PlanName, 0, len(plans))
	for _, p := range plans {
		if _, exists := byName[p.Name]; exists {
			continue
		}
		byName[p.Name] = p
		ordered = append(ordered, p.Name)
	}
	return PlanCatalog{plans: byName, ordered: ordered}
}

// DefaultPlanCatalog возвращает стандартный набор планов.
func DefaultPlanCatalog() PlanCatalog {
	return NewPlanCatalog([]PlanInfo{
		{Name: PlanMonthly, DisplayName: "Premium Monthly", PriceCents: 999, DurationDays: 30},
		{Name: PlanYearly, DisplayName: "Premium Yearly", PriceCents: 7999, DurationDays: 365},
		{Name: PlanLifetime, DisplayName: "Premium Lifetime", PriceCents: 19999, DurationDays: 0},
	})
}

// ByName возвращает план по имени.
func (c PlanCatalog) ByName(name PlanName) (PlanInfo, bool) {
	p, ok := c.plans[name]
	return p, ok
}

// All возвращает планы в порядке регистрации.
// Используется в Meta ошибки платёжного гейта: клиент получает
// каталог, из которого можно оформить подписку.
func (c PlanCatalog) All() []PlanInfo {
	out := make([]PlanInfo, 0, len(c.ordered))
	for _, name := range c.ordered {
		out = append(out, c.plans[name])
	}
	return out
}
