package functions

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-greengrass-core-sdk-c/internal/models"
	"github.com/aws/aws-greengrass-core-sdk-c/pkg/greengrass"
)

var errShortPacket = errors.New("short packet")

// CustomerPayload is the event the customer example sends. It is shorter
// than a customer packet, so the customer function answers with an error.
var CustomerPayload = []byte{1, 2, 3, 4, 5}

// CustomerHandler doubles the value of a binary customer packet. Short
// packets and negative values are answered with an error message.
func (e *Examples) CustomerHandler(ctx context.Context, inv greengrass.Invocation) {
	lc := inv.Context()
	e.Logger.Infof("function arn: [%s]", lc.FunctionARN)
	e.Logger.Infof("client context: [%s]", lc.ClientContext)

	// The packet buffer is sized exactly, so a full read is the success case
	buf := make([]byte, models.CustomerDataSize)
	n, err := greengrass.Drain(inv, buf)
	if err != nil || n != len(buf) {
		message := fmt.Sprintf("Failed to read data. amount_read(%d), amount_requested(%d), err(%d)",
			n, len(buf), greengrass.CodeOf(err))
		if err := inv.WriteError(message); err != nil {
			e.Logger.Errorf("Writing the error response failed %d", greengrass.CodeOf(err))
		}
		return
	}

	var packet models.CustomerData
	if err := packet.UnmarshalBinary(buf); err != nil {
		inv.WriteError(err.Error())
		return
	}

	if packet.Value < 0 {
		if err := inv.WriteError("Read a negative value"); err != nil {
			e.Logger.Errorf("Writing the error response failed %d", greengrass.CodeOf(err))
		}
		return
	}

	response, err := models.ResponseData{Value: packet.Value * 2}.MarshalBinary()
	if err != nil {
		inv.WriteError(err.Error())
		return
	}
	if err := inv.WriteResponse(response); err != nil {
		e.Logger.Errorf("Writing the response failed %d", greengrass.CodeOf(err))
	}
}

// CustomerReply is the outcome of invoking the customer function
type CustomerReply struct {
	Status   greengrass.RequestStatus
	Response *models.ResponseData
	Error    string
}

// InvokeCustomer invokes the customer function with payload. A successful
// response must be exactly one response packet.
func (e *Examples) InvokeCustomer(ctx context.Context, payload []byte) (*CustomerReply, error) {
	opts := &greengrass.InvokeOptions{
		FunctionARN:     e.Config.CustomerARN,
		CustomerContext: e.Config.CustomerContext,
		Qualifier:       e.Config.InvokeQualifier,
		Type:            greengrass.InvokeRequestResponse,
		Payload:         payload,
	}

	var reply *CustomerReply
	err := greengrass.WithRequest(e.Runtime, func(req greengrass.Request) error {
		result, err := e.Runtime.Invoke(ctx, req, opts)
		if err != nil {
			e.Logger.Errorf("something went wrong with invoke: %d", greengrass.CodeOf(err))
			return err
		}
		reply = &CustomerReply{Status: result.Status}

		switch result.Status {
		case greengrass.RequestSuccess:
			buf := make([]byte, models.ResponseDataSize)
			n, err := greengrass.Drain(req, buf)
			if err != nil || n != len(buf) {
				e.Logger.Errorf("Failed to read data. amount_read(%d), amount_requested(%d), err(%d)",
					n, len(buf), greengrass.CodeOf(err))
				if err == nil {
					err = fmt.Errorf("%w: read %d of %d bytes", errShortPacket, n, len(buf))
				}
				return err
			}

			response := &models.ResponseData{}
			if err := response.UnmarshalBinary(buf); err != nil {
				return err
			}
			reply.Response = response
			e.Logger.Infof("Response.value %d", response.Value)
		case greengrass.RequestHandled, greengrass.RequestUnhandled:
			message, err := e.readReply(req, result, ErrorBufferSize, "error message")
			if err != nil {
				return err
			}
			reply.Error = message.Body
			e.Logger.Infof("Error: %s", reply.Error)
		default:
			e.Logger.Errorf("something went wrong with invoke, request_status %d", result.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// CustomerRun holds what RunCustomerExamples saw
type CustomerRun struct {
	Invoke *CustomerReply
	Get    *Reply
	Update *Reply
	Delete *Reply
}

// RunCustomerExamples invokes the customer function, then gets, updates and
// deletes the thing's shadow. It stops at the first failure.
func (e *Examples) RunCustomerExamples(ctx context.Context) (*CustomerRun, error) {
	run := &CustomerRun{}
	var err error

	if run.Invoke, err = e.InvokeCustomer(ctx, CustomerPayload); err != nil {
		e.Logger.Errorf("Invoking the customer function failed %d", greengrass.CodeOf(err))
		return run, err
	}
	if run.Get, err = e.GetShadow(ctx, e.Config.ThingName, ReadBufferSize); err != nil {
		e.Logger.Errorf("Getting the thing shadow failed %d", greengrass.CodeOf(err))
		return run, err
	}
	if run.Update, err = e.UpdateShadow(ctx, e.Config.ThingName, desiredMode("ON"), ReadBufferSize); err != nil {
		e.Logger.Errorf("Updating the thing shadow failed %d", greengrass.CodeOf(err))
		return run, err
	}
	if run.Delete, err = e.DeleteShadow(ctx, e.Config.ThingName, ReadBufferSize); err != nil {
		e.Logger.Errorf("Deleting the thing shadow failed %d", greengrass.CodeOf(err))
		return run, err
	}
	return run, nil
}
