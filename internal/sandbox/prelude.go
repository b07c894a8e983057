package sandbox

// prelude installs the guest-side error classes. It evaluates to the
// system error constructor used by the bindings.
const prelude = `(function (AB) {
	var global = this;
	global.global = global;

	function UserError(message, ex, fatal) {
		if (!(this instanceof UserError)) {
			return new UserError(message, ex, fatal);
		}
		this.message = message === undefined ? '' : String(message);
		if (ex !== null && typeof ex === 'object') {
			this.ex = ex;
			if (ex.fatal) this.fatal = true;
			if (ex.allow_retry) this.allow_retry = true;
		} else {
			var params = {};
			if (ex) { this.allow_retry = true; params.allow_retry = true; }
			if (fatal) { this.fatal = true; params.fatal = true; }
			this.ex = params;
		}
		this.stack = new Error(this.message).stack;
	}
	UserError.prototype = Object.create(Error.prototype);
	UserError.prototype.constructor = UserError;
	UserError.prototype.name = 'AnyBalanceApiUserError';

	function SystemError(message) {
		this.message = String(message);
		this.stack = new Error(this.message).stack;
	}
	SystemError.prototype = Object.create(Error.prototype);
	SystemError.prototype.constructor = SystemError;
	SystemError.prototype.name = 'AnyBalanceApiError';

	AB.Error = UserError;
	return SystemError;
})(AnyBalance)`
