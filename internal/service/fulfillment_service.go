package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const defaultShipmentLeadDays = 3

// BranchOutcome 單一 fan-out 呼叫的結果
type BranchOutcome struct {
	Name string
	Err  error
}

type FulfillmentResult struct {
	InventoryCalls int
	ShipmentID     string

	mu       sync.Mutex
	Branches []BranchOutcome
}

func (r *FulfillmentResult) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Branches = append(r.Branches, BranchOutcome{Name: name, Err: err})
}

func (r *FulfillmentResult) BranchErrors() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.Branches))
	for _, b := range r.Branches {
		if b.Err != nil {
			out[b.Name] = b.Err.Error()
		} else {
			out[b.Name] = "ok"
		}
	}
	return out
}

type IFulfillmentService interface {
	Fulfill(ctx context.Context, order *model.Order, items []model.OrderLineItem, shipping *evt_model.ShippingIntent) *FulfillmentResult
}

// FulfillmentService 把付款後的副作用當成各自冪等、各自容錯的 saga
// 沒有任何一步能跟付款狀態綁在同一個交易裡，所以不做回滾:
// 出貨呼叫 timeout 就去沖正一筆已入帳的款項，對商城是更糟的失敗模式
type FulfillmentService struct {
	orderService IOrderService
	inventory    gateway.IInventoryClient
	shipment     gateway.IShipmentClient
	cart         gateway.ICartClient
	logger       zerolog.Logger
	now          func() time.Time
}

func NewFulfillmentService(
	orderService IOrderService,
	inventory gateway.IInventoryClient,
	shipment gateway.IShipmentClient,
	cart gateway.ICartClient,
	logger zerolog.Logger,
) *FulfillmentService {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	if inventory == nil || shipment == nil || cart == nil {
		panic("fulfillment downstream clients cannot be nil")
	}
	return &FulfillmentService{
		orderService: orderService,
		inventory:    inventory,
		shipment:     shipment,
		cart:         cart,
		logger:       logger,
		now:          time.Now,
	}
}

// Fulfill 三段 fan-out: 扣庫存 / 建出貨單 / (出貨明細+狀態+清購物車)
// 每條分支都跑到完才收批，單一分支失敗不取消兄弟分支
func (s *FulfillmentService) Fulfill(ctx context.Context, order *model.Order, items []model.OrderLineItem, shipping *evt_model.ShippingIntent) *FulfillmentResult {
	result := &FulfillmentResult{}

	s.decrementInventory(ctx, order, items, result)

	shipmentID := s.createShipment(ctx, order, shipping, result)
	result.ShipmentID = shipmentID

	g := new(errgroup.Group)
	if shipmentID != "" {
		s.populateShipment(ctx, g, shipmentID, items, result)
	} else {
		s.logger.Warn().Str("order_id", order.OrderID).Msg("no shipment id, skip shipment lines and status seed")
	}

	// 清購物車不依賴出貨單，清空的購物車再清一次也會成功
	g.Go(func() error {
		err := s.cart.ClearCart(ctx, order.UserID)
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("clear cart failed")
		}
		result.record("cart:clear", err)
		return nil
	})

	g.Wait()
	return result
}

// decrementInventory 以 variant 分組加總數量，一個 variant 一次呼叫，並發送出
// 旗標在整批結束後設定，不管個別呼叫成敗 (at-most-once 嘗試，不保證成功)
func (s *FulfillmentService) decrementInventory(ctx context.Context, order *model.Order, items []model.OrderLineItem, result *FulfillmentResult) {
	if order.Decremented {
		// 重播事件，一次呼叫都不發
		return
	}

	grouped := groupQuantityByVariant(items)
	if len(grouped) == 0 {
		return
	}

	g := new(errgroup.Group)
	for variantID, quantity := range grouped {
		variantID, quantity := variantID, quantity
		g.Go(func() error {
			err := s.inventory.DecrementVariant(ctx, variantID, quantity)
			if err != nil {
				// 失敗只記 log，這個系統不重試，交給對帳補償
				s.logger.Error().Err(err).
					Str("order_id", order.OrderID).
					Int64("variant_id", variantID).
					Int("quantity", quantity).
					Msg("inventory decrement failed")
			}
			result.record(fmt.Sprintf("inventory:variant:%d", variantID), err)
			return nil
		})
	}
	g.Wait()
	result.InventoryCalls = len(grouped)

	updated, err := s.orderService.MarkDecremented(ctx, order.OrderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("set decremented flag failed")
		return
	}
	if !updated {
		s.logger.Debug().Str("order_id", order.OrderID).Msg("decremented flag already set by another delivery")
	}
	order.Decremented = true
}

func (s *FulfillmentService) createShipment(ctx context.Context, order *model.Order, shipping *evt_model.ShippingIntent, result *FulfillmentResult) string {
	req := gateway.CreateShipmentRequest{
		BuyerID:     order.UserID,
		Destination: order.ShipDestination,
		Cost:        order.ShipCost,
	}
	estimated := order.ShipEstimatedAt
	if shipping != nil {
		if shipping.Destination != "" {
			req.Destination = shipping.Destination
		}
		if shipping.Cost.IsPositive() {
			req.Cost = shipping.Cost
		}
		if shipping.EstimatedAt != nil {
			estimated = shipping.EstimatedAt
		}
	}
	if estimated == nil {
		// 沒給預計到貨日就抓三個日曆天後
		d := s.now().AddDate(0, 0, defaultShipmentLeadDays)
		estimated = &d
	}
	req.EstimatedDate = gateway.FormatShipmentDate(*estimated)

	shipmentID, err := s.shipment.CreateShipment(ctx, req)
	result.record("shipment:create", err)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("create shipment failed")
		return ""
	}
	return shipmentID
}

func (s *FulfillmentService) populateShipment(ctx context.Context, g *errgroup.Group, shipmentID string, items []model.OrderLineItem, result *FulfillmentResult) {
	for productID, quantity := range groupQuantityByProduct(items) {
		productID, quantity := productID, quantity
		g.Go(func() error {
			err := s.shipment.CreateShipmentLine(ctx, shipmentID, productID, quantity)
			if err != nil {
				s.logger.Error().Err(err).Str("shipment_id", shipmentID).Int64("product_id", productID).Msg("create shipment line failed")
			}
			result.record(fmt.Sprintf("shipment:line:%d", productID), err)
			return nil
		})
	}

	g.Go(func() error {
		err := s.shipment.CreateShipmentStatus(ctx, shipmentID)
		if err != nil {
			s.logger.Error().Err(err).Str("shipment_id", shipmentID).Msg("seed shipment status failed")
		}
		result.record("shipment:status", err)
		return nil
	})
}

func groupQuantityByVariant(items []model.OrderLineItem) map[int64]int {
	grouped := make(map[int64]int)
	for _, item := range items {
		if item.VariantID == 0 {
			continue
		}
		grouped[item.VariantID] += item.Quantity
	}
	return grouped
}

func groupQuantityByProduct(items []model.OrderLineItem) map[int64]int {
	grouped := make(map[int64]int)
	for _, item := range items {
		if item.ProductID == 0 {
			continue
		}
		grouped[item.ProductID] += item.Quantity
	}
	return grouped
}

var _ IFulfillmentService = (*FulfillmentService)(nil)
